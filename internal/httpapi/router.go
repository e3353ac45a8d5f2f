package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter wires every endpoint onto an engine. The engine is passed
// in so main can use gin.Default while tests use gin.New.
func NewRouter(r *gin.Engine, bills *BillsHandler, ocr *OCRHandler) *gin.Engine {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		billsGroup := api.Group("/bills")
		{
			billsGroup.GET("", bills.List)
			billsGroup.POST("", bills.Create)
			billsGroup.GET("/search", bills.Search)
			billsGroup.GET("/count", bills.Count)
			billsGroup.GET("/export", bills.Export)
			billsGroup.GET("/:id", bills.Get)
			billsGroup.PUT("/:id", bills.Update)
			billsGroup.DELETE("/:id", bills.Delete)
		}

		api.POST("/ocr", ocr.Process)
	}

	return r
}
