// Package proxy forwards browser relayer and gateway traffic to the real
// upstreams with cross-origin isolation headers, so the FHE WebAssembly
// runtime can use SharedArrayBuffer.
package proxy

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/AlexZinkM/fhe-dapps/internal/logger"
	"github.com/AlexZinkM/fhe-dapps/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Config is the proxy configuration.
type Config struct {
	RelayerUpstream string
	GatewayUpstream string
	// StaticDir is served at / with index.html fallback when set.
	StaticDir   string
	CORSOrigins []string
}

// upstream response headers replaced by our own
var droppedResponseHeaders = []string{
	"Content-Encoding",
	"Content-Length",
	"Transfer-Encoding",
	"Cross-Origin-Opener-Policy",
	"Cross-Origin-Embedder-Policy",
	"Access-Control-Allow-Origin",
	"Access-Control-Allow-Credentials",
	"Access-Control-Allow-Methods",
	"Access-Control-Allow-Headers",
	"Access-Control-Expose-Headers",
	"Access-Control-Max-Age",
}

// CrossOriginIsolation sets COOP/COEP on every response.
func CrossOriginIsolation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Cross-Origin-Embedder-Policy", "require-corp")
		next.ServeHTTP(w, r)
	})
}

// CORS returns the CORS middleware used in front of the proxy.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	})
}

// Upstream returns a reverse proxy to target for requests whose prefix was
// already stripped. name labels logs and metrics.
func Upstream(name, target string, log logger.Logger) (http.Handler, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid %s upstream %q: %w", name, target, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("invalid %s upstream %q: want http(s)://host", name, target)
	}

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(u)
			pr.Out.Header.Del("Content-Length")
			pr.Out.Header.Set("Accept-Encoding", "identity")
		},
		ModifyResponse: func(resp *http.Response) error {
			for _, h := range droppedResponseHeaders {
				resp.Header.Del(h)
			}
			metrics.ProxyRequest(name, resp.StatusCode)
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Error("proxy request failed", "upstream", name, "path", r.URL.Path, "error", err)
			metrics.ProxyRequest(name, http.StatusBadGateway)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			json.NewEncoder(w).Encode(map[string]string{
				"error":   "proxy_failed",
				"message": err.Error(),
			})
		},
	}, nil
}

// Mount registers /relayer and /gateway on r.
func Mount(r chi.Router, cfg Config, log logger.Logger) error {
	routes := []struct {
		prefix, name, target string
	}{
		{"/relayer", "relayer", cfg.RelayerUpstream},
		{"/gateway", "gateway", cfg.GatewayUpstream},
	}
	for _, rt := range routes {
		h, err := Upstream(rt.name, rt.target, log)
		if err != nil {
			return err
		}
		r.Mount(rt.prefix, http.StripPrefix(rt.prefix, h))
		log.Info("proxy route", "prefix", rt.prefix+"/*", "upstream", rt.target)
	}
	return nil
}

// Static serves dir and falls back to index.html for unknown paths.
func Static(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
		if _, err := os.Stat(name); err != nil {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		files.ServeHTTP(w, r)
	})
}

// NewRouter returns a standalone proxy router: isolation headers, CORS,
// /relayer, /gateway, /health and the optional static directory.
func NewRouter(cfg Config, log logger.Logger) (*chi.Mux, error) {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware(log))
	r.Use(middleware.Recoverer)
	r.Use(CrossOriginIsolation)
	r.Use(CORS(cfg.CORSOrigins))

	r.Get("/health", Health)
	if err := Mount(r, cfg, log); err != nil {
		return nil, err
	}
	if cfg.StaticDir != "" {
		r.Handle("/*", Static(cfg.StaticDir))
	}
	return r, nil
}

// Health reports liveness.
func Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
