package food

import (
	"net/http"

	foodService "nutrition-resolver/internal/core/food"
	"nutrition-resolver/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ParseRequest is the body of POST /meal/parse.
type ParseRequest struct {
	// Description is the free-text meal description, e.g.
	// "2 huevos fritos con arroz".
	Description string `json:"description" binding:"required"`
	// Resolve also runs a food search for each parsed item.
	Resolve bool `json:"resolve,omitempty"`
}

// ParsedItemResponse is one parsed meal item, optionally resolved.
type ParsedItemResponse struct {
	common.ParsedMealItem
	MatchType common.MatchType    `json:"match_type,omitempty"`
	Matches   []common.FoodRecord `json:"matches,omitempty"`
}

// ParseResponse is the body of POST /meal/parse.
type ParseResponse struct {
	RawDescription string               `json:"raw_description"`
	Items          []ParsedItemResponse `json:"items"`
}

// HandleParse serves POST /meal/parse.
func (h *Handler) HandleParse(c *gin.Context) {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = common.GenerateUUID()
		c.Header("X-Request-ID", requestID)
	}

	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogError("invalid parse request",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
			"code":  common.ErrCodeInvalidRequest,
		})
		return
	}

	meal := h.service.ParseMealDescription(req.Description)

	items := make([]ParsedItemResponse, 0, len(meal.Items))
	for _, item := range meal.Items {
		out := ParsedItemResponse{ParsedMealItem: item}
		if req.Resolve {
			result := h.service.Search(c.Request.Context(), item.Tag, foodService.SearchOptions{
				APIKey: c.GetHeader("X-FDC-Api-Key"),
			})
			out.MatchType = result.MatchType
			out.Matches = result.Results
			// A fuzzy batch means the item was only resolved approximately.
			out.Approximate = result.MatchType == common.MatchFuzzy
		}
		items = append(items, out)
	}

	common.LogInfo("meal description parsed",
		zap.String("request_id", requestID),
		zap.Int("items", len(items)),
		zap.Bool("resolved", req.Resolve),
	)

	c.JSON(http.StatusOK, ParseResponse{
		RawDescription: meal.RawDescription,
		Items:          items,
	})
}
