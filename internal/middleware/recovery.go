package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
)

type panicSafeWriter struct {
	http.ResponseWriter
	wrote bool
}

func (w *panicSafeWriter) WriteHeader(code int) {
	w.wrote = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *panicSafeWriter) Write(b []byte) (int, error) {
	w.wrote = true
	return w.ResponseWriter.Write(b)
}

func (w *panicSafeWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Recovery turns a handler panic into a 500 with the standard error envelope.
// If the handler already started writing a response, only the log line is
// emitted; the wire is left as-is.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			psw := &panicSafeWriter{ResponseWriter: w}

			defer func() {
				v := recover()
				if v == nil {
					return
				}

				logger.Error("panic recovered",
					"panic", v,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)

				if psw.wrote {
					return
				}

				psw.Header().Set("Content-Type", "application/json")
				psw.WriteHeader(http.StatusInternalServerError)
				if err := json.NewEncoder(psw).Encode(map[string]any{
					"error": map[string]string{
						"code":    "INTERNAL_ERROR",
						"message": "internal server error",
					},
				}); err != nil {
					logger.Error("failed to write recovery response", "error", err)
				}
			}()

			next.ServeHTTP(psw, r)
		})
	}
}
