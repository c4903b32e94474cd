package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rebornapp/reborn-golang/internal/service"
)

type createTransactionInput struct {
	ItemID          string   `json:"item_id" binding:"required,min=1"`
	BuyerID         int64    `json:"buyer_id" binding:"required,min=1"`
	SellerID        int64    `json:"seller_id" binding:"required,min=1"`
	Price           *float64 `json:"price" binding:"required,gte=0"`
	TransactionDate string   `json:"transaction_date" binding:"required,datetime=2006-01-02"`
}

// ListTransactions handles GET /transactions.
func (h *Handlers) ListTransactions(c *gin.Context) {
	transactions, err := h.Transactions.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transactions)
}

// GetTransaction handles GET /transactions/:id.
func (h *Handlers) GetTransaction(c *gin.Context) {
	t, err := h.Transactions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// CreateTransaction handles POST /transactions: it records the sale and
// flips the item to sold in one atomic step.
func (h *Handlers) CreateTransaction(c *gin.Context) {
	var input createTransactionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, bindError(err))
		return
	}

	t, err := h.Transactions.Sell(c.Request.Context(), service.TransactionFields{
		ItemID:          input.ItemID,
		BuyerID:         input.BuyerID,
		SellerID:        input.SellerID,
		Price:           *input.Price,
		TransactionDate: input.TransactionDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Transaction created", "transaction": t})
}
