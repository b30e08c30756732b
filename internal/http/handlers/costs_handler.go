// Cost HTTP handlers: today's paid-API usage, advice and hourly series.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-trip-backend/internal/utils"
)

// RecommendationsResponse lists cost advice.
type RecommendationsResponse struct {
	Recommendations []string `json:"recommendations"`
}

// GetUsage godoc
// @ID          getCostUsage
// @Summary     Today's API usage and estimated cost
// @Tags        Costs
// @Produce     json
// @Success     200  {object} quota.Usage
// @Router      /costs/usage [get]
func (h *Handlers) GetUsage(c *gin.Context) {
	ok(c, http.StatusOK, h.costs.Usage(c.Request.Context()))
}

// GetRecommendations godoc
// @ID          getCostRecommendations
// @Summary     Cost optimization advice derived from today's usage
// @Tags        Costs
// @Produce     json
// @Success     200  {object} handlers.RecommendationsResponse
// @Router      /costs/recommendations [get]
func (h *Handlers) GetRecommendations(c *gin.Context) {
	recs := h.costs.Recommendations(c.Request.Context())
	if recs == nil {
		recs = []string{}
	}
	ok(c, http.StatusOK, RecommendationsResponse{Recommendations: recs})
}

// GetHourlyUsage godoc
// @ID          getCostHourly
// @Summary     Hourly call counts per service
// @Tags        Costs
// @Produce     json
// @Param       hours  query  int  false  "Hours back"  minimum(1) maximum(24) default(6)
// @Success     200  {object} quota.HourlyUsage
// @Router      /costs/hourly [get]
func (h *Handlers) GetHourlyUsage(c *gin.Context) {
	hours := utils.BoundedInt(c.Query("hours"), 6, 1, 24)
	ok(c, http.StatusOK, h.costs.HourlyUsage(c.Request.Context(), hours))
}
