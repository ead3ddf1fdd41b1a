package notes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"clinical-backend/internal/shared/server/respond"
)

// Handler exposes the notes collection over HTTP.
type Handler struct {
	Notes *Collection
}

func NewHandler(c *Collection) *Handler {
	return &Handler{Notes: c}
}

// RegisterRoutes attaches note routes.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/api/notes", h.list)
	r.GET("/api/notes/:slug", h.get)
}

func (h *Handler) list(c *gin.Context) {
	items := h.Notes.List()
	respond.OK(c, gin.H{"items": items, "count": len(items)})
}

func (h *Handler) get(c *gin.Context) {
	n, err := h.Notes.Get(c.Param("slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "note not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal", "failed to load note", nil)
		return
	}
	respond.OK(c, n)
}
