package tags

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"series-catalog/internal/domain/catalog"
)

type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

type CreateTagRequest struct {
	Nombre string `json:"nombre" binding:"required"`
	Color  string `json:"color"`
}

// GET /tags
func (h *Handler) List(c *gin.Context) {
	var tags []catalog.Tag
	if err := h.db.Order("nombre ASC").Find(&tags).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching tags"})
		return
	}
	c.JSON(http.StatusOK, tags)
}

// POST /tags
func (h *Handler) Create(c *gin.Context) {
	var req CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tag := catalog.Tag{Nombre: req.Nombre}
	if req.Color != "" {
		tag.Color = req.Color
	}
	if err := h.db.Create(&tag).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating tag"})
		return
	}
	c.JSON(http.StatusCreated, tag)
}
