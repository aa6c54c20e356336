package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/gohoops/internal/domain"
)

// NewRouter builds the gin engine with every route registered.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", h.Health)

	v1 := router.Group("/api/v1")

	v1.GET("/scrape/stats", h.Scrape(domain.TaskScrapeStats))
	v1.GET("/scrape/ratings", h.Scrape(domain.TaskScrapeRatings))
	v1.GET("/scrape/scores", h.Scrape(domain.TaskScrapeScores))
	v1.GET("/scrape/trank", h.Scrape(domain.TaskScrapeTRank))
	v1.GET("/scrape/all", h.Scrape(domain.TaskScrapeAll))

	v1.GET("/tasks", h.ListTasks)
	v1.GET("/tasks/:id", h.GetTask)
	v1.POST("/tasks/:id/cancel", h.CancelTask)

	v1.POST("/aggregate", h.AggregateRange)
	v1.POST("/aggregate/:year", h.AggregateYear)

	return router
}
