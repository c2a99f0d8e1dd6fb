package transport

import (
	"github.com/ds124wfegd/mri-uploader/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

func InitRoutes(uploadHandler *UploadHandler) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())

	upload := router.Group("/upload")
	{
		upload.GET("", uploadHandler.State)
		upload.POST("/select", uploadHandler.Select)
		upload.POST("/drop", uploadHandler.Drop)
		upload.POST("/drag/:kind", uploadHandler.Drag)
		upload.POST("/submit", uploadHandler.Submit)
	}
	router.GET("/state", uploadHandler.State)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "mri-uploader",
		})
	})
	return router
}
