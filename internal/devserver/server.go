package devserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/jschatz1/howth/internal/hmr"
)

// Server is the dev server's top-level HTTP handler: a small, ordered
// prefix/path switch rather than a router library, since the dev server
// only ever serves a handful of distinct URL spaces.
type Server struct {
	Pipeline  *Pipeline
	PreBundle *PreBundleCache
	HMR       http.Handler // serves /__hmr; nil makes /__hmr answer 404
}

func NewServer(pipeline *Pipeline, preBundle *PreBundleCache, hmrHandler http.Handler) *Server {
	return &Server{Pipeline: pipeline, PreBundle: preBundle, HMR: hmrHandler}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	urlPath := r.URL.Path

	if urlPath == "/__hmr" {
		if s.HMR != nil {
			s.HMR.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
		return
	}

	if strings.HasPrefix(urlPath, PrefixModules) {
		s.serveModulePrebundle(w, urlPath)
		return
	}

	if urlPath == HMRClientURL {
		w.Header().Set("Content-Type", "application/javascript")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write([]byte(hmr.RuntimeSource))
		return
	}

	entry, err := s.Pipeline.Serve(urlPath)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", entry.ContentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Last-Modified", time.UnixMilli(entry.Timestamp).Format(http.TimeFormat))
	_, _ = w.Write([]byte(entry.Code))
}

func (s *Server) serveModulePrebundle(w http.ResponseWriter, urlPath string) {
	name := strings.TrimPrefix(urlPath, PrefixModules)
	code, ok := s.PreBundle.Get(name)
	if !ok {
		http.Error(w, "404 page not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write([]byte(code))
}
