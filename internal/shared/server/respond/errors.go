package respond

import (
	"github.com/gin-gonic/gin"

	"clinical-backend/internal/shared/telemetry"
)

const requestIDKey = "requestId"

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, code, message string, details interface{}) {
	logError(c, status, code, message)
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// Fail sends the flat {"ok":false,"error":...} body used by the answer endpoints.
func Fail(c *gin.Context, status int, message string) {
	logError(c, status, "", message)
	c.AbortWithStatusJSON(status, gin.H{"ok": false, "error": message})
}

func logError(c *gin.Context, status int, code, message string) {
	fields := map[string]any{
		"status":     status,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString(requestIDKey),
	}
	if code != "" {
		fields["code"] = code
	}
	if status >= 500 {
		telemetry.Error("http.error", fields)
		return
	}
	telemetry.Warn("http.error", fields)
}
