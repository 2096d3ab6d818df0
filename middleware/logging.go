package middleware

import (
	"net/http"

	"github.com/felixge/httpsnoop"
	log "github.com/sirupsen/logrus"
)

// Logging writes one access log line per request. The writer passed on keeps
// the optional interfaces of the original (Hijacker, Flusher), which the
// socket.io websocket upgrade relies on.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)

		entry := log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   m.Code,
			"duration": m.Duration.String(),
		})
		switch {
		case m.Code >= 500:
			entry.Error("request failed")
		case m.Code >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request handled")
		}
	})
}
