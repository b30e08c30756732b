package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-trip-backend/internal/http/middleware"
)

// ErrorResponse is the error envelope every endpoint answers with.
//
//	{"request_id":"8c0e...","code":"trip_not_found","message":"trip not found"}
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	Code      string `json:"code" example:"trip_not_found"`
	Message   string `json:"message" example:"trip not found"`
}

// failLevel picks the log level for an error status. Client errors stay
// quiet; backpressure is expected under load and only warns.
func failLevel(status int) zerolog.Level {
	switch {
	case status == http.StatusServiceUnavailable:
		return zerolog.WarnLevel
	case status >= http.StatusInternalServerError:
		return zerolog.ErrorLevel
	default:
		return zerolog.NoLevel
	}
}

func fail(c *gin.Context, status int, code, msg string) {
	if lvl := failLevel(status); lvl != zerolog.NoLevel {
		ev := middleware.LoggerFrom(c).WithLevel(lvl).Str("code", code)
		if lvl == zerolog.ErrorLevel {
			ev = ev.Int("status", status).Str("detail", msg)
		}
		ev.Msg("request failed")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail writes the error envelope for callers outside this package, such as
// the router's fallback handlers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) { c.JSON(status, body) }
