package handlers

import (
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rebornapp/reborn-golang/internal/apperr"
	"github.com/rebornapp/reborn-golang/internal/models"
	"github.com/rebornapp/reborn-golang/internal/search"
	"github.com/rebornapp/reborn-golang/internal/service"
)

// maxImageBytes caps a single uploaded image at 2 MiB.
const maxImageBytes = 2 << 20

var uuidV4Pattern = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}`)

type createItemInput struct {
	Title       string   `json:"title" form:"title" binding:"required,min=4,max=255"`
	Description string   `json:"description" form:"description" binding:"required,min=4,max=255"`
	Price       *float64 `json:"price" form:"price" binding:"required,gte=0"`
	Category    string   `json:"category" form:"category" binding:"required,max=255"`
	Location    string   `json:"location" form:"location" binding:"omitempty,max=255"`
	State       string   `json:"state" form:"state" binding:"omitempty,oneof=available reserved"`
	Condition   *int     `json:"condition" form:"condition" binding:"required,gte=0,lte=3"`
	PublishDate string   `json:"publishDate" form:"publishDate" binding:"required,datetime=2006-01-02"`
	UserID      int64    `json:"userId" form:"userId" binding:"required,min=1"`
	Images      []string `json:"images" binding:"omitempty,max=5,dive,url"`
}

// updateItemInput differs from create in one way carried over from the
// original behavior: an update may move an item into the sold state.
type updateItemInput struct {
	Title       string   `json:"title" form:"title" binding:"required,min=4,max=255"`
	Description string   `json:"description" form:"description" binding:"required,min=4,max=255"`
	Price       *float64 `json:"price" form:"price" binding:"required,gte=0"`
	Category    string   `json:"category" form:"category" binding:"required,max=255"`
	Location    string   `json:"location" form:"location" binding:"omitempty,max=255"`
	State       string   `json:"state" form:"state" binding:"omitempty,oneof=available sold reserved"`
	Condition   *int     `json:"condition" form:"condition" binding:"required,gte=0,lte=3"`
	PublishDate string   `json:"publishDate" form:"publishDate" binding:"required,datetime=2006-01-02"`
	UserID      int64    `json:"userId" form:"userId" binding:"required,min=1"`
	Images      []string `json:"images" binding:"omitempty,max=5,dive,url"`
}

// ListItems handles GET /items. Sold items never appear.
func (h *Handlers) ListItems(c *gin.Context) {
	items, err := h.Items.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GetItem handles GET /items/:id.
func (h *Handlers) GetItem(c *gin.Context) {
	item, err := h.Items.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// SearchItems handles POST /items/search. Invalid directives fail the whole
// request with 400; no partial results.
func (h *Handlers) SearchItems(c *gin.Context) {
	var body struct {
		Filters []search.Directive `json:"filters"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, apperr.Conflict("Invalid filters format"))
		return
	}

	items, err := h.Items.Search(c.Request.Context(), body.Filters)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// CreateItem handles POST /items. The body is either JSON (images as
// pre-hosted URLs) or a multipart form whose image files are pushed to the
// asset host after the record exists.
func (h *Handlers) CreateItem(c *gin.Context) {
	var input createItemInput
	var files []service.ImageFile

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if err := c.ShouldBind(&input); err != nil {
			respondError(c, bindError(err))
			return
		}
		form, err := c.MultipartForm()
		if err != nil {
			respondError(c, apperr.Conflict("Invalid request body"))
			return
		}
		files, err = readImageFiles(form.File["images"])
		if err != nil {
			respondError(c, err)
			return
		}
	} else {
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, bindError(err))
			return
		}
	}

	item, err := h.Items.Create(c.Request.Context(), service.ItemFields{
		UserID:      input.UserID,
		Title:       input.Title,
		Description: input.Description,
		Price:       *input.Price,
		Category:    input.Category,
		Location:    input.Location,
		State:       models.ItemState(input.State),
		Condition:   *input.Condition,
		PublishDate: input.PublishDate,
		Images:      input.Images,
	}, files)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Item created", "item": item})
}

// UpdateItem handles PUT /items/:id.
func (h *Handlers) UpdateItem(c *gin.Context) {
	id := c.Param("id")
	if !uuidV4Pattern.MatchString(id) {
		respondError(c, apperr.Conflict("Invalid item id"))
		return
	}

	var input updateItemInput
	var files []service.ImageFile

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if err := c.ShouldBind(&input); err != nil {
			respondError(c, bindError(err))
			return
		}
		form, err := c.MultipartForm()
		if err != nil {
			respondError(c, apperr.Conflict("Invalid request body"))
			return
		}
		files, err = readImageFiles(form.File["images"])
		if err != nil {
			respondError(c, err)
			return
		}
	} else {
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, bindError(err))
			return
		}
	}

	item, err := h.Items.Update(c.Request.Context(), id, service.ItemFields{
		UserID:      input.UserID,
		Title:       input.Title,
		Description: input.Description,
		Price:       *input.Price,
		Category:    input.Category,
		Location:    input.Location,
		State:       models.ItemState(input.State),
		Condition:   *input.Condition,
		PublishDate: input.PublishDate,
		Images:      input.Images,
	}, files)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item updated", "item": item})
}

// DeleteItem handles DELETE /items/:id and returns the removed record.
func (h *Handlers) DeleteItem(c *gin.Context) {
	item, err := h.Items.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// readImageFiles validates and reads multipart image uploads: at most five
// per item, jpeg/jpg/png only, 2 MiB each.
func readImageFiles(headers []*multipart.FileHeader) ([]service.ImageFile, error) {
	if len(headers) == 0 {
		return nil, nil
	}
	if len(headers) > models.MaxItemImages {
		return nil, apperr.Validation(map[string][]string{
			"images": {"Must be at most 5"},
		})
	}

	files := make([]service.ImageFile, 0, len(headers))
	for _, header := range headers {
		if header.Size > maxImageBytes {
			return nil, apperr.Validation(map[string][]string{
				"images": {"Each image must be at most 2048 KB"},
			})
		}
		switch strings.ToLower(filepath.Ext(header.Filename)) {
		case ".jpg", ".jpeg", ".png":
		default:
			return nil, apperr.Validation(map[string][]string{
				"images": {"Images must be jpeg, jpg or png files"},
			})
		}

		f, err := header.Open()
		if err != nil {
			return nil, apperr.Internal("Failed to read uploaded image", err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, apperr.Internal("Failed to read uploaded image", err)
		}
		files = append(files, service.ImageFile{Name: header.Filename, Data: data})
	}
	return files, nil
}
