package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/chattydevs/core/core"
)

// Request parameter bounds and defaults for the ingest endpoint.
const (
	DefaultMaxPages       = 20
	MinMaxPages           = 1
	MaxMaxPages           = 200
	DefaultChunkTokenSize = 300
	MinChunkTokenSize     = 100
	MaxChunkTokenSize     = 1000
)

// ServiceName is reported by the health endpoint.
const ServiceName = "chattydevs-core"

// Crawler walks a site breadth-first and returns its pages.
type Crawler interface {
	Crawl(ctx context.Context, startURL string, maxPages int) ([]core.Page, error)
}

// Chunker splits text into token-bounded chunks.
type Chunker interface {
	Split(text string, tokenLimit int) []string
}

// Upserter embeds chunks and writes them to the vector store.
type Upserter interface {
	Upsert(ctx context.Context, projectID, source string, chunks []string) (int, error)
}

// Deleter removes every vector of a project.
type Deleter interface {
	DeleteProject(ctx context.Context, projectID string) (int, error)
}

// Server wires the pipelines to their HTTP endpoints.
type Server struct {
	crawler     Crawler
	chunker     Chunker
	upserter    Upserter
	deleter     Deleter
	tokenDigest []byte
	environment string
	pool        *ants.Pool
	logger      *slog.Logger
	httpServer  *http.Server
}

// Option configures a Server.
type Option func(*Server) error

// WithPoolSize sets the worker pool size for heavy request bodies.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(s *Server) error {
		if size < 1 {
			size = 1
		}
		if s.pool != nil {
			s.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		s.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithEnvironment sets the environment name reported by /health.
// Default is "development".
func WithEnvironment(env string) Option {
	return func(s *Server) error {
		if env != "" {
			s.environment = env
		}
		return nil
	}
}

// NewServer creates the HTTP surface over the given pipelines.
// internalToken must be non-empty; it is held as a BLAKE2b digest only.
func NewServer(crawler Crawler, chunker Chunker, upserter Upserter, deleter Deleter, internalToken string, opts ...Option) (*Server, error) {
	if crawler == nil {
		return nil, ErrCrawlerRequired
	}
	if chunker == nil {
		return nil, ErrChunkerRequired
	}
	if upserter == nil {
		return nil, ErrUpserterRequired
	}
	if deleter == nil {
		return nil, ErrDeleterRequired
	}
	if internalToken == "" {
		return nil, ErrTokenRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	s := &Server{
		crawler:     crawler,
		chunker:     chunker,
		upserter:    upserter,
		deleter:     deleter,
		tokenDigest: digestToken(internalToken),
		environment: "development",
		pool:        pool,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(s); optErr != nil {
			s.Release()
			return nil, optErr
		}
	}

	return s, nil
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /projects/ingest", s.requireToken(s.handleIngest))
	mux.HandleFunc("POST /projects/delete", s.requireToken(s.handleDelete))
	mux.HandleFunc("POST /upload", s.requireToken(s.handleUpload))
	mux.HandleFunc("GET /health", s.handleHealth)

	return s.withCORS(s.withRequestLog(mux))
}

// ListenAndServe runs the server on addr until Shutdown is called or
// the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // ingest requests crawl and embed synchronously
	}

	s.logger.Info("http server listening", "addr", addr, "environment", s.environment)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Release releases the worker pool.
// The server should not be used after calling Release.
func (s *Server) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}

// offload runs fn on the worker pool and waits for it to finish,
// keeping the calling request synchronous while bounding process-wide
// heavy work.
func (s *Server) offload(fn func()) error {
	done := make(chan struct{})
	if err := s.pool.Submit(func() {
		defer close(done)
		fn()
	}); err != nil {
		return err
	}
	<-done
	return nil
}
