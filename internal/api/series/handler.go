package series

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"series-catalog/internal/domain/catalog"
	"series-catalog/internal/lock"
	"series-catalog/internal/media"
)

type Handler struct {
	db    *gorm.DB
	media *media.Store
	locks lock.Locker
}

func NewHandler(db *gorm.DB, store *media.Store, locks lock.Locker) *Handler {
	return &Handler{db: db, media: store, locks: locks}
}

// ------------------------------
// GET /series
// ------------------------------
func (h *Handler) List(c *gin.Context) {
	var series []catalog.Serie
	err := h.db.
		Preload("Generos").
		Preload("Tags").
		Order("created_at DESC").
		Find(&series).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch series"})
		return
	}

	counts, err := h.actorCounts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch series"})
		return
	}

	out := make([]ListItem, 0, len(series))
	for _, s := range series {
		out = append(out, ListItem{Serie: s, ActoresCount: counts[s.ID]})
	}
	c.JSON(http.StatusOK, out)
}

// ------------------------------
// GET /series/search?query=
// ------------------------------
func (h *Handler) Search(c *gin.Context) {
	query := strings.ToLower(c.Query("query"))

	var results []SearchItem
	err := h.db.Model(&catalog.Serie{}).
		Select("id", "titulo", "anio", "poster").
		Where("LOWER(titulo) LIKE ?", "%"+query+"%").
		Limit(10).
		Find(&results).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search series"})
		return
	}
	c.JSON(http.StatusOK, results)
}

// ------------------------------
// GET /series/:id
// ------------------------------
func (h *Handler) Get(c *gin.Context) {
	s, err := h.loadSerie(c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to fetch serie")
		return
	}
	c.JSON(http.StatusOK, s)
}

// ------------------------------
// POST /series (multipart)
// ------------------------------
func (h *Handler) Create(c *gin.Context) {
	in, err := parseIntent(c, true)
	if err != nil {
		h.respondError(c, err, "Failed to create serie")
		return
	}

	s, err := h.applyCreate(in)
	if err != nil {
		h.respondError(c, err, "Failed to create serie")
		return
	}
	c.JSON(http.StatusCreated, s)
}

// ------------------------------
// PUT /series/:id (multipart, partial update)
// ------------------------------
func (h *Handler) Update(c *gin.Context) {
	in, err := parseIntent(c, false)
	if err != nil {
		h.respondError(c, err, "Failed to update serie")
		return
	}

	s, err := h.applyUpdate(c.Param("id"), in)
	if err != nil {
		h.respondError(c, err, "Failed to update serie")
		return
	}
	c.JSON(http.StatusOK, s)
}

// ------------------------------
// DELETE /series/:id
// ------------------------------
func (h *Handler) Delete(c *gin.Context) {
	if err := h.applyDelete(c.Param("id")); err != nil {
		h.respondError(c, err, "Failed to delete serie")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Serie deleted successfully"})
}

// ------------------------------
// POST /media/lookup {"title": ..., "type": "poster"|"banner"}
// ------------------------------
func (h *Handler) MediaLookup(c *gin.Context) {
	var req MediaLookupRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title required"})
		return
	}

	kind := media.KindPoster
	if req.Type == "banner" {
		kind = media.KindBanner
	}
	c.JSON(http.StatusOK, gin.H{"posterPath": h.media.Find(req.Title, kind)})
}

func (h *Handler) actorCounts() (map[string]int64, error) {
	var rows []struct {
		SerieID string
		N       int64
	}
	err := h.db.Model(&catalog.SerieActor{}).
		Select("serie_id", "COUNT(*) AS n").
		Group("serie_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.SerieID] = r.N
	}
	return counts, nil
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	if ve := catalog.AsValidation(err); ve != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": ve})
		return
	}
	if errors.Is(err, catalog.ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Serie not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": fallback, "details": err.Error()})
}
