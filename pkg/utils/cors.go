package utils

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Cors allows the desktop client (served from another origin) to call the
// API and read the frame metadata headers off capture responses.
func Cors() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "PUT", "POST", "PATCH", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders: []string{
			"Content-Length", "Content-Type",
			"X-Frame-Width", "X-Frame-Height", "X-Pixel-Size",
			"X-Exposure-Ms", "X-Camera-Timestamp",
		},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
