package search

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"clinical-backend/internal/shared/server/respond"
)

// Handler serves the search API over an Index.
type Handler struct {
	Index *Index
}

func NewHandler(idx *Index) *Handler {
	return &Handler{Index: idx}
}

// RegisterRoutes attaches search routes.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/health", h.health)
	r.POST("/api/search", h.search)
}

type searchRequest struct {
	Query string `json:"query"`
	K     *int   `json:"k"`
}

type searchResponse struct {
	Query   string   `json:"query"`
	Results []Result `json:"results"`
}

func (h *Handler) health(c *gin.Context) {
	respond.OK(c, gin.H{"ok": true, "chunks": h.Index.Len()})
}

func (h *Handler) search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_input", "Invalid JSON body", nil)
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		respond.Error(c, http.StatusBadRequest, "invalid_input", "Empty query", nil)
		return
	}
	k := DefaultK
	if req.K != nil {
		k = *req.K
	}

	respond.OK(c, searchResponse{Query: req.Query, Results: h.Index.Search(query, k)})
}
