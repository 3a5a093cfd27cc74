package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Charlesagui/scraptor/models"
	"github.com/Charlesagui/scraptor/scraper"
)

// Runner executes one scraping session. Implemented by scraper.Scraper;
// stubbed in tests.
type Runner interface {
	Run(ctx context.Context) (*scraper.Result, error)
}

// Quotes returns a handler for GET /api/v1/quotes. Each request performs
// one full scrape against the configured target; the upstream pacing
// contract is preserved because runs share the same retrieval controller.
func Quotes(runner Runner) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := runner.Run(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadGateway, models.QuotesResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    "SCRAPE_FAILED",
					Message: err.Error(),
				},
			})
			return
		}
		c.JSON(http.StatusOK, models.QuotesResponse{
			Success: true,
			Records: result.Records,
			Stats:   &result.Stats,
		})
	}
}
