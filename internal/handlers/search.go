package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/thereayou/flux/internal/apperr"
	"github.com/thereayou/flux/internal/services"
)

type SearchHandler struct {
	search *services.SearchService
	log    *slog.Logger
}

func NewSearchHandler(search *services.SearchService, log *slog.Logger) *SearchHandler {
	return &SearchHandler{search: search, log: log}
}

// Search ?q=&date=all|1m|3m|1y&min_rating=1..5
func (h *SearchHandler) Search(c *gin.Context) {
	q := services.SearchQuery{
		Text: c.Query("q"),
		Date: c.DefaultQuery("date", "all"),
	}
	if raw := c.Query("min_rating"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, h.log, apperr.Validation("min_rating must be a number"))
			return
		}
		q.MinRating = &n
	}

	results, err := h.search.Search(c.Request.Context(), q)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}
