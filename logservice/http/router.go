package http

import (
	"net/http"
	"strings"
)

// RouterOptions configures the pieces around the API routes
type RouterOptions struct {
	AllowedOrigins []string
	AllowedMethods []string
	StaticDir      string // Served at /, empty disables
	HealthPath     string
}

// NewRouter registers the API routes and wraps them in the CORS policy
func NewRouter(h *LogHandler, opts RouterOptions) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/logs", h.CreateLog)
	mux.HandleFunc("GET /api/logs", h.ListActive)
	mux.HandleFunc("GET /api/logs/archived", h.ListArchived)
	mux.HandleFunc("DELETE /api/logs/{id}", h.DeleteLog)
	mux.HandleFunc("PUT /api/logs/archive/{id}", h.ArchiveLog)

	if opts.HealthPath != "" {
		mux.HandleFunc("GET "+opts.HealthPath, h.HealthCheck)
	}

	if opts.StaticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(opts.StaticDir)))
	}

	return CORS(opts.AllowedOrigins, opts.AllowedMethods, mux)
}

// CORS allows cross-origin calls from the listed origins only. Preflight
// requests are answered here and never reach next.
func CORS(origins, methods []string, next http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	allowMethods := strings.Join(methods, ",")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Add("Vary", "Origin")
		_, ok := allowed[origin]
		if ok {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			if ok {
				w.Header().Set("Access-Control-Allow-Methods", allowMethods)
				if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
					w.Header().Set("Access-Control-Allow-Headers", reqHeaders)
				}
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
