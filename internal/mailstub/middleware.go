package mailstub

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// requestNote is filled in by hit while a request is served.
type requestNote struct {
	route  Route
	forced int
}

type noteKey struct{}

func noteFrom(ctx context.Context) *requestNote {
	n, _ := ctx.Value(noteKey{}).(*requestNote)
	return n
}

// requestLogger logs each request with the stub route it hit and the status
// forced on that route, if any. Forced failures log at warn.
func (s *Stub) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		note := &requestNote{}
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), noteKey{}, note)))

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		}
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			attrs = append(attrs, "pattern", rctx.RoutePattern())
		}
		if note.route != "" {
			attrs = append(attrs, "route", string(note.route), "hits", s.Hits(note.route))
		}
		if note.forced != 0 {
			attrs = append(attrs, "forced_status", note.forced)
			slog.Warn("mailstub forced failure", attrs...)
			return
		}
		slog.Info("mailstub request", attrs...)
	})
}
