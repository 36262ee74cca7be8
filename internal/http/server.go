package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"gradecalc/internal/log"
	"gradecalc/internal/middleware/ratelimit"
	"gradecalc/internal/middleware/security"
	"gradecalc/internal/middleware/trace"
	"gradecalc/internal/report"
	"gradecalc/internal/services"
	appweb "gradecalc/web"
)

// Options tunes the server beyond its required collaborators.
type Options struct {
	Logger             *log.Logger
	RateLimitPerMinute int
	// BlockSuspicious rejects probing requests instead of only logging them.
	BlockSuspicious bool
	// Ready backs /readyz; nil means always ready.
	Ready func(ctx context.Context) error
}

// Server serves the calculator views and the PDF exports.
type Server struct {
	http.Server
	templates *template.Template
	calc      *services.Calculator
	exporter  *report.Exporter
	logger    *log.Logger
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	tracer    *trace.Middleware
	ready     func(ctx context.Context) error

	shutdownOnce sync.Once
}

// NewServer parses the embedded templates and wires routes and middleware.
func NewServer(addr string, calc *services.Calculator, exporter *report.Exporter, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentHTTP})
	}
	if exporter == nil {
		exporter = report.NewExporter(logger.WithComponent(log.ComponentReport))
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	detector := security.NewDetector(logger.WithComponent(log.ComponentSecurity), opts.BlockSuspicious)
	s := &Server{
		templates: t,
		calc:      calc,
		exporter:  exporter,
		logger:    logger,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:  detector,
		tracer:    trace.NewMiddleware(logger.WithComponent(log.ComponentTrace), detector.ExtractClientIP),
		ready:     opts.Ready,
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.middleware(s.routes()),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/view", s.handleView)
	mux.HandleFunc("/navigate", s.handleNavigate)

	mux.HandleFunc("/courses", s.handleAddCourse)
	mux.HandleFunc("/courses/edit", s.handleEditCourse)
	mux.HandleFunc("/gpa/submit", s.handleSubmitGPA)
	mux.HandleFunc("/gpa/reset", s.handleResetGPA)
	mux.HandleFunc("/gpa/transfer", s.handleTransfer)

	mux.HandleFunc("/semesters", s.handleAddSemester)
	mux.HandleFunc("/semesters/edit", s.handleEditSemester)
	mux.HandleFunc("/semesters/clear", s.handleClearSemesters)
	mux.HandleFunc("/cgpa/submit", s.handleSubmitCGPA)
	mux.HandleFunc("/cgpa/leave", s.handleLeaveCGPA)

	mux.HandleFunc("/export/gpa", s.handleExport(report.KindGPA))
	mux.HandleFunc("/export/cgpa", s.handleExport(report.KindCGPA))

	return mux
}

// middleware wraps next, outermost first: headers, tracing, request logger,
// probe detection, then rate limiting on POSTs.
func (s *Server) middleware(next http.Handler) http.Handler {
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited)(next)
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			limited.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})

	var handler http.Handler = h
	handler = s.detector.Middleware(handler)
	handler = log.RequestIDMiddleware(trace.FromRequest)(handler)
	handler = log.Middleware(s.logger)(handler)
	handler = s.tracer.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	return handler
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Too many requests. Please wait a minute and try again.").
		Header("Retry-After", "60").
		TriggerErrorNotification("Too many requests").
		Write(w)
}

// Shutdown stops the limiter and drains the HTTP server; later calls are no-ops.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
