// Package dashboard is the presentation collaborator: an HTTP server that
// streams each cycle's snapshot over SSE, serves the static UI and lets
// the user change the filter specification between cycles.
package dashboard

import (
	"compress/gzip"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path"
	"strings"
	"time"

	"golang.org/x/crypto/acme/autocert"

	"github.com/ruanmelo/cambiovivo/internal/domain"
)

const snapshotPollInterval = 3 * time.Second

// SnapshotSource exposes the engine's latest published snapshot with a
// sequence number so the stream only sends fresh data.
type SnapshotSource interface {
	Latest() (domain.Snapshot, uint64)
}

// FilterController is the engine side of the selection widgets.
type FilterController interface {
	Options() domain.FilterOptions
	Filters() domain.FilterSpec
	SetFilters(domain.FilterSpec)
}

// Server exposes HTTP endpoints serving the HTML UI, the snapshot SSE
// stream and the filter API.
type Server struct {
	Addr    string
	Source  SnapshotSource
	Filters FilterController
}

// NewServer creates a new dashboard server.
func NewServer(addr string, source SnapshotSource, filters FilterController) *Server {
	return &Server{Addr: addr, Source: source, Filters: filters}
}

func (s *Server) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/", s.staticHandler())
	mux.HandleFunc("/snapshot/stream", s.handleSnapshotStream)
	mux.HandleFunc("/api/filters", s.handleFilters)
	return mux
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is
// cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.mux(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartWithAutoTLS runs an HTTPS server with automatic TLS certificates
// via ACME. It also starts an HTTP server on port 80 to handle ACME
// HTTP-01 challenges.
func (s *Server) StartWithAutoTLS(ctx context.Context, domains []string, cacheDir string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(domains) == 0 {
		return fmt.Errorf("no domains provided for automatic TLS")
	}
	if cacheDir == "" {
		cacheDir = "cert-cache"
	}

	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(domains...),
		Cache:      autocert.DirCache(cacheDir),
	}

	// HTTP server on port 80 for ACME challenges and HTTP->HTTPS redirects.
	httpSrv := &http.Server{
		Addr:              ":80",
		Handler:           manager.HTTPHandler(nil),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	tlsConfig := manager.TLSConfig()
	tlsConfig.MinVersion = tls.VersionTLS12

	httpsSrv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.mux(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
		TLSConfig:         tlsConfig,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http (acme) server shutdown error: %v", err)
		}
		if err := httpsSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("https server shutdown error: %v", err)
		}
	}()

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http (acme) server error: %v", err)
		}
	}()

	if err := httpsSrv.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleSnapshotStream sends the latest snapshot whenever the engine
// publishes a new one, with a heartbeat so proxies keep the connection.
func (s *Server) handleSnapshotStream(w http.ResponseWriter, r *http.Request) {
	if s.Source == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "snapshot source not available")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	heartbeat := time.NewTicker(20 * time.Second)
	defer heartbeat.Stop()

	pollTicker := time.NewTicker(snapshotPollInterval)
	defer pollTicker.Stop()

	var lastSeq uint64
	send := func() error {
		snapshot, seq := s.Source.Latest()
		if seq == 0 || seq == lastSeq {
			return nil
		}

		payload, err := json.Marshal(snapshot)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "id: %d\n", seq)
		fmt.Fprintf(w, "event: snapshot\n")
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
		lastSeq = seq
		return nil
	}

	if err := send(); err != nil {
		http.Error(w, "failed to load snapshot", http.StatusInternalServerError)
		log.Printf("snapshot stream initial load: %v", err)
		return
	}

	// nothing published yet: let the client switch from 'loading' to
	// 'no data yet'.
	if lastSeq == 0 {
		fmt.Fprintf(w, "event: no_data\n")
		fmt.Fprintf(w, "data: {}\n\n")
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case <-pollTicker.C:
			if err := send(); err != nil {
				log.Printf("snapshot stream poll err: %v", err)
			}
		}
	}
}

type filtersPayload struct {
	Options domain.FilterOptions `json:"options"`
	Spec    domain.FilterSpec    `json:"spec"`
}

// handleFilters returns the selection widget state on GET and installs a
// new filter specification on POST. The engine reads the spec whole at
// the start of its next cycle.
func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	if s.Filters == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "filter controller not available")
		return
	}

	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(filtersPayload{
			Options: s.Filters.Options(),
			Spec:    s.Filters.Filters(),
		})

	case http.MethodPost:
		var spec domain.FilterSpec
		if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
			http.Error(w, fmt.Sprintf("invalid filter spec: %v", err), http.StatusBadRequest)
			return
		}
		s.Filters.SetFilters(spec)
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) staticHandler() http.Handler {
	fileServer := http.StripPrefix("/", http.FileServer(http.Dir("dashboard/static")))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assetPath := r.URL.Path
		if assetPath == "" || assetPath == "/" {
			assetPath = "/index.html"
		}

		if !shouldCompress(assetPath) || !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			fileServer.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Set("Vary", "Accept-Encoding")

		gz := gzip.NewWriter(w)
		defer gz.Close()

		gzw := &gzipResponseWriter{ResponseWriter: w, writer: gz}
		fileServer.ServeHTTP(gzw, r)
	})
}

type gzipResponseWriter struct {
	http.ResponseWriter
	writer *gzip.Writer
}

func (w *gzipResponseWriter) WriteHeader(statusCode int) {
	w.Header().Del("Content-Length")
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	return w.writer.Write(b)
}

func shouldCompress(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return true
	}
	switch ext {
	case ".html", ".css", ".js", ".json", ".svg", ".txt":
		return true
	default:
		return false
	}
}
