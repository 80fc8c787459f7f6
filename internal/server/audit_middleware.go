package server

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/bagstore/storefront/internal/metrics"
)

// auditLogMiddleware runs after route matching, so the route name and path
// variables are available. Multipart bodies are not copied.
func (s *Server) auditLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		vars := mux.Vars(r)
		entry := AuditLogEntry{
			Timestamp:    start.UTC(),
			Method:       r.Method,
			Path:         r.URL.Path,
			Route:        routeName(r),
			OrderNumber:  vars["orderNumber"],
			ReturnNumber: vars["returnNumber"],
		}

		skipRequestBody := strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data")
		if !skipRequestBody && r.Body != nil {
			requestBody, _ := io.ReadAll(io.LimitReader(r.Body, maxCapturedBody+1))
			rest := r.Body
			r.Body = struct {
				io.Reader
				io.Closer
			}{io.MultiReader(bytes.NewReader(requestBody), rest), rest}
			if len(requestBody) > maxCapturedBody {
				requestBody = requestBody[:maxCapturedBody]
			}
			if entry.Route != "issue_token" {
				entry.Request = string(requestBody)
			}
		}

		wrw := newResponseWriterWrapper(w)
		rec := &actorRecorder{}
		next.ServeHTTP(wrw, r.WithContext(withActorRecorder(r.Context(), rec)))

		entry.StatusCode = wrw.GetStatusCode()
		entry.Duration = time.Since(start)
		if entry.Route != "issue_token" {
			entry.Response = string(wrw.GetBody())
		}
		if rec.set {
			entry.UserID = rec.actor.ID
			entry.Role = string(rec.actor.Role)
		}

		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, entry.Route, strconv.Itoa(entry.StatusCode)).Inc()
		s.AuditManager.LogEntry(r.Context(), entry)
	})
}

func routeName(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return "unknown"
	}
	if name := route.GetName(); name != "" {
		return name
	}
	if tpl, err := route.GetPathTemplate(); err == nil {
		return tpl
	}
	return "unknown"
}
