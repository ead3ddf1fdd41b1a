package guidelines

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"clinical-backend/internal/shared/server/respond"
)

const maxIngestBody = 5 << 20 // 5MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches guideline routes.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/", h.home)
	r.GET("/health", h.health)
	r.POST("/answer", h.answer)
	r.POST("/ingest_text", h.ingest)
}

func (h *Handler) health(c *gin.Context) {
	respond.OK(c, gin.H{"ok": true})
}

func (h *Handler) home(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(homeHTML))
}

func (h *Handler) answer(c *gin.Context) {
	q, k := readQuestion(c)
	if q == "" {
		respond.Fail(c, http.StatusBadRequest, "Empty question")
		return
	}

	res, err := h.Svc.Answer(c.Request.Context(), q, k)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.Fail(c, http.StatusBadRequest, "Empty question")
			return
		}
		respond.Fail(c, http.StatusInternalServerError, "search failed")
		return
	}
	respond.OK(c, gin.H{"ok": true, "answer": res.HTML, "sources": res.Sources})
}

type ingestRequest struct {
	Title     string `json:"title"`
	Org       string `json:"org"`
	URL       string `json:"url"`
	Published string `json:"published"`
	Text      string `json:"text"`
}

func (h *Handler) ingest(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxIngestBody)

	var req ingestRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		req = ingestRequest{}
	}
	if strings.TrimSpace(req.Text) == "" {
		respond.Fail(c, http.StatusBadRequest, "No text")
		return
	}

	g, err := h.Svc.Ingest(c.Request.Context(), IngestInput{
		Title:     req.Title,
		Org:       req.Org,
		URL:       req.URL,
		Published: req.Published,
		Text:      req.Text,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.Fail(c, http.StatusBadRequest, "No text")
			return
		}
		respond.Fail(c, http.StatusInternalServerError, "failed to store guideline")
		return
	}
	respond.OK(c, gin.H{"ok": true, "inserted": []Guideline{g}})
}

// readQuestion accepts a JSON body with question or q, or a form field q.
func readQuestion(c *gin.Context) (string, int) {
	if strings.HasPrefix(c.ContentType(), "application/json") {
		var payload map[string]any
		if err := json.NewDecoder(c.Request.Body).Decode(&payload); err != nil {
			return "", 0
		}
		q := stringField(payload, "question")
		if q == "" {
			q = stringField(payload, "q")
		}
		return q, intField(payload["k"])
	}
	k, _ := strconv.Atoi(strings.TrimSpace(c.PostForm("k")))
	return strings.TrimSpace(c.PostForm("q")), k
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

func intField(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(t))
		return n
	}
	return 0
}
