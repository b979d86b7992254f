package main

import (
	"log"
	"time"

	"series-catalog/config"
	"series-catalog/database"
	routes "series-catalog/internal/app/http"
	"series-catalog/internal/lock"
	"series-catalog/internal/media"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// gin.SetMode(gin.ReleaseMode) uncomment only in production
	config.LoadEnv()

	db, err := database.Open(config.DB_URL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	store := media.NewStore(config.MEDIA_ROOT)
	locks := lock.NewLocker()

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.CORS_ORIGIN},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, db, store, locks, config.MEDIA_ROOT)

	if err := r.Run(":" + config.PORT); err != nil {
		log.Fatalf("server: %v", err)
	}
}
