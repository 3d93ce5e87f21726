package food

import (
	"net/http"
	"strings"

	foodService "nutrition-resolver/internal/core/food"
	"nutrition-resolver/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves the food search and meal parse endpoints.
type Handler struct {
	service *foodService.Service
}

// NewHandler creates the food API handler.
func NewHandler(service *foodService.Service) *Handler {
	return &Handler{service: service}
}

// SearchResponse is the body of GET /food/search.
type SearchResponse struct {
	Query     string              `json:"query"`
	MatchType common.MatchType    `json:"match_type"`
	Results   []common.FoodRecord `json:"results"`
}

// HandleSearch serves GET /food/search?q=. The X-FDC-Api-Key header overrides
// the configured FoodData Central key for this request.
func (h *Handler) HandleSearch(c *gin.Context) {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = common.GenerateUUID()
		c.Header("X-Request-ID", requestID)
	}

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		common.LogWarn("search query missing",
			zap.String("request_id", requestID),
			zap.String("client_ip", c.ClientIP()),
		)
		c.JSON(common.ErrEmptyQuery.Status, gin.H{
			"error": common.ErrEmptyQuery.Message,
			"code":  common.ErrEmptyQuery.Code,
		})
		return
	}

	opts := foodService.SearchOptions{
		APIKey:        c.GetHeader("X-FDC-Api-Key"),
		DisableRemote: c.Query("offline") == "true",
	}

	result := h.service.Search(c.Request.Context(), query, opts)

	common.LogInfo("food search completed",
		zap.String("request_id", requestID),
		zap.String("query", query),
		zap.String("match_type", string(result.MatchType)),
		zap.Int("results", len(result.Results)),
	)

	c.JSON(http.StatusOK, SearchResponse{
		Query:     query,
		MatchType: result.MatchType,
		Results:   result.Results,
	})
}
