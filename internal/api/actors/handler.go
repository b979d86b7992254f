package actors

import (
	"net/http"
	"time"

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

type CreateActorRequest struct {
	Nombre          string  `json:"nombre" binding:"required"`
	Pais            *string `json:"pais"`
	FechaNacimiento *string `json:"fechaNacimiento"`
	Foto            *string `json:"foto"`
	Biografia       *string `json:"biografia"`
}

// GET /actores
func (h *Handler) List(c *gin.Context) {
	var actores []catalog.Actor
	if err := h.db.Order("nombre ASC").Find(&actores).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching actors"})
		return
	}
	c.JSON(http.StatusOK, actores)
}

// POST /actores
func (h *Handler) Create(c *gin.Context) {
	var req CreateActorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := catalog.Actor{
		Nombre:       req.Nombre,
		Nacionalidad: req.Pais,
		Foto:         req.Foto,
		Biografia:    req.Biografia,
	}
	if req.FechaNacimiento != nil && *req.FechaNacimiento != "" {
		t, err := time.Parse("2006-01-02", *req.FechaNacimiento)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "fechaNacimiento inválida"})
			return
		}
		actor.FechaNac = &t
	}

	if err := h.db.Create(&actor).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating actor"})
		return
	}
	c.JSON(http.StatusCreated, actor)
}
