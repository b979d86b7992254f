package genres

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

type CreateGenreRequest struct {
	Nombre string `json:"nombre" binding:"required"`
}

// GET /generos
func (h *Handler) List(c *gin.Context) {
	var generos []catalog.Genre
	if err := h.db.Order("nombre ASC").Find(&generos).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching genres"})
		return
	}
	c.JSON(http.StatusOK, generos)
}

// POST /generos
func (h *Handler) Create(c *gin.Context) {
	var req CreateGenreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	genero := catalog.Genre{Nombre: req.Nombre}
	if err := h.db.Create(&genero).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating genre"})
		return
	}
	c.JSON(http.StatusCreated, genero)
}
