package themedev

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 5 * time.Second

// Server is the theme dev server.
type Server struct {
	dctx    *DevContext
	watcher *Watcher
	http    *http.Server
}

// NewServer wires the assets handler in front of a reverse proxy to upstream.
// A nil upstream proxies to https://<store>. A nil watcher disables live
// reloading.
func NewServer(dctx *DevContext, upstream *url.URL, watcher *Watcher) (*Server, error) {
	if upstream == nil {
		if dctx.Store == "" {
			return nil, errors.New("theme dev needs a store")
		}
		upstream = &url.URL{Scheme: "https", Host: dctx.Store}
	}

	handler := AssetsHandler(dctx, newStoreProxy(upstream, dctx.logger()))
	return &Server{
		dctx:    dctx,
		watcher: watcher,
		http: &http.Server{
			Handler:           logRequests(dctx.logger(), handler),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Run serves on ln until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	if s.watcher != nil {
		g.Go(func() error { return s.watcher.Run(gctx) })
	}

	g.Go(func() error {
		s.dctx.logger().Info("serving theme", zap.String("addr", "http://"+ln.Addr().String()), zap.String("store", s.dctx.Store))
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func newStoreProxy(upstream *url.URL, logger *zap.Logger) http.Handler {
	proxy := httputil.NewSingleHostReverseProxy(upstream)
	director := proxy.Director
	proxy.Director = func(r *http.Request) {
		director(r)
		r.Host = upstream.Host
		// Compressed bodies would defeat content rewriting downstream.
		r.Header.Del("Accept-Encoding")
	}
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Warn("proxy request failed", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}
	return proxy
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

func logRequests(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		source := "proxy"
		if strings.EqualFold(rec.Header().Get("X-Local-Asset"), "true") {
			source = "local"
		}
		logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.RequestURI()),
			zap.Int("status", rec.status),
			zap.String("source", source),
			zap.Duration("took", time.Since(start)),
		)
	})
}
