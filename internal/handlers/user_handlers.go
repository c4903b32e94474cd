package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rebornapp/reborn-golang/internal/apperr"
	"github.com/rebornapp/reborn-golang/internal/service"
)

type userInput struct {
	Name               string `json:"name" binding:"required,max=255"`
	LastName           string `json:"lastName" binding:"omitempty,max=255"`
	Email              string `json:"email" binding:"required,email,max=255"`
	Phone              string `json:"phone" binding:"omitempty,max=32"`
	ShowPhone          bool   `json:"showPhone"`
	ProfileDescription string `json:"profileDescription" binding:"omitempty,max=1000"`
	City               string `json:"city" binding:"omitempty,max=255"`
	State              string `json:"state" binding:"omitempty,max=255"`
	Country            string `json:"country" binding:"omitempty,max=255"`
	Address            string `json:"address" binding:"omitempty,max=255"`
	ZipCode            string `json:"zipCode" binding:"omitempty,max=16"`
}

func (in userInput) fields() service.UserFields {
	return service.UserFields{
		Name:               in.Name,
		LastName:           in.LastName,
		Email:              in.Email,
		Phone:              in.Phone,
		ShowPhone:          in.ShowPhone,
		ProfileDescription: in.ProfileDescription,
		City:               in.City,
		State:              in.State,
		Country:            in.Country,
		Address:            in.Address,
		ZipCode:            in.ZipCode,
	}
}

// ListUsers handles GET /users and returns active users only.
func (h *Handlers) ListUsers(c *gin.Context) {
	users, err := h.Users.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// GetUser handles GET /users/:id. Deactivated users still resolve here so
// transaction history keeps working.
func (h *Handlers) GetUser(c *gin.Context) {
	id, err := userID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	user, err := h.Users.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// CreateUser handles POST /users.
func (h *Handlers) CreateUser(c *gin.Context) {
	var input userInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, bindError(err))
		return
	}
	user, err := h.Users.Create(c.Request.Context(), input.fields())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User created", "user": user})
}

// UpdateUser handles PUT /users/:id.
func (h *Handlers) UpdateUser(c *gin.Context) {
	id, err := userID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var input userInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, bindError(err))
		return
	}
	user, err := h.Users.Update(c.Request.Context(), id, input.fields())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User updated", "user": user})
}

// DeleteUser handles DELETE /users/:id: soft-deletes the user and cascades
// deletion to their unsold items.
func (h *Handlers) DeleteUser(c *gin.Context) {
	id, err := userID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	user, err := h.Users.Deactivate(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func userID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, apperr.NotFound("User not found")
	}
	return id, nil
}
