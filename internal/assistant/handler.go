package assistant

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"clinical-backend/internal/shared/server/respond"
	"clinical-backend/internal/shared/telemetry"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches assistant routes.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/", h.home)
	r.GET("/health", h.health)
	r.GET("/reindex", h.reindex)
	r.POST("/reindex", h.reindex)
	r.POST("/answer", h.answer)
	r.POST("/api/clinical-qa", h.clinicalQA)
}

type questionRequest struct {
	Question string `json:"question"`
}

func readQuestion(c *gin.Context) string {
	var req questionRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		return ""
	}
	return strings.TrimSpace(req.Question)
}

func (h *Handler) home(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(homeHTML))
}

func (h *Handler) health(c *gin.Context) {
	respond.OK(c, gin.H{"ok": true, "files_indexed": h.Svc.Corpus.Len()})
}

func (h *Handler) reindex(c *gin.Context) {
	n, err := h.Svc.Reindex(c.Request.Context())
	if err != nil {
		respond.Fail(c, http.StatusInternalServerError, "reindex failed")
		return
	}
	respond.OK(c, gin.H{"ok": true, "files_indexed": n})
}

func (h *Handler) answer(c *gin.Context) {
	q := readQuestion(c)
	if q == "" {
		respond.Fail(c, http.StatusBadRequest, "Missing 'question'")
		return
	}

	reply, err := h.Svc.Answer(c.Request.Context(), q)
	c.Set("provider", reply.Provider)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.Fail(c, http.StatusBadRequest, "Missing 'question'")
			return
		}
		// Provider failures are reported in-band so the UI can show them.
		telemetry.Warn("assistant.llm_failed", map[string]any{"provider": reply.Provider, "error": err})
		respond.OK(c, gin.H{"ok": false, "error": "AI unavailable: " + err.Error()})
		return
	}
	respond.OK(c, gin.H{"ok": true, "provider": reply.Provider, "answer": reply.Answer})
}

func (h *Handler) clinicalQA(c *gin.Context) {
	q := readQuestion(c)
	if q == "" {
		respond.JSON(c, http.StatusBadRequest, gin.H{"error": "No clinical question received."})
		return
	}
	c.Set("provider", h.Svc.Provider())

	answer, err := h.Svc.ClinicalQA(c.Request.Context(), q)
	if err != nil {
		telemetry.Error("assistant.clinical_qa_failed", map[string]any{"provider": h.Svc.Provider(), "error": err})
		respond.JSON(c, http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	respond.OK(c, gin.H{"answer": answer})
}
