package server

import (
	"bytes"
	"net/http"
	"strings"
)

const maxCapturedBody = 4 << 10

// responseWriterWrapper records the status code and the start of JSON
// response bodies for the audit log.
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
	buffer      bytes.Buffer
}

func newResponseWriterWrapper(w http.ResponseWriter) *responseWriterWrapper {
	return &responseWriterWrapper{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.statusCode = statusCode
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriterWrapper) Write(b []byte) (int, error) {
	w.wroteHeader = true
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if room := maxCapturedBody - w.buffer.Len(); room > 0 {
			w.buffer.Write(b[:min(room, len(b))])
		}
	}
	return w.ResponseWriter.Write(b)
}

func (w *responseWriterWrapper) GetStatusCode() int {
	return w.statusCode
}

func (w *responseWriterWrapper) GetBody() []byte {
	return w.buffer.Bytes()
}
