package routes

import (
	"path/filepath"

	actorsapi "series-catalog/internal/api/actors"
	genresapi "series-catalog/internal/api/genres"
	seriesapi "series-catalog/internal/api/series"
	tagsapi "series-catalog/internal/api/tags"
	"series-catalog/internal/app/http/middleware"
	"series-catalog/internal/lock"
	"series-catalog/internal/media"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, store *media.Store, locks lock.Locker, mediaRoot string) {
	series := seriesapi.NewHandler(db, store, locks)
	generos := genresapi.NewHandler(db)
	tags := tagsapi.NewHandler(db)
	actores := actorsapi.NewHandler(db)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Stored media is served straight from the public directories so
	// persisted paths resolve as URLs.
	r.Static("/posters", filepath.Join(mediaRoot, "posters"))
	r.Static("/banners", filepath.Join(mediaRoot, "banners"))
	r.Static("/img", filepath.Join(mediaRoot, "img"))

	r.GET("/series", series.List)
	r.GET("/series/search", series.Search)
	r.GET("/series/:id", series.Get)
	r.POST("/series", series.Create)
	r.PUT("/series/:id", series.Update)
	r.DELETE("/series/:id", series.Delete)

	r.POST("/media/lookup", series.MediaLookup)

	// JSON write endpoints get input sanitization
	public := r.Group("/")
	public.Use(middleware.SanitizeAndCleanInputMiddleware())

	public.GET("/generos", generos.List)
	public.POST("/generos", generos.Create)
	public.GET("/tags", tags.List)
	public.POST("/tags", tags.Create)
	public.GET("/actores", actores.List)
	public.POST("/actores", actores.Create)
}
