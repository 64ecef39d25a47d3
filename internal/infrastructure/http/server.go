// Package http provides the net/http front end.
// Clean Architecture: Framework/driver layer - outermost circle.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/0xcro3dile/txnsight/internal/infrastructure/api"
	"github.com/0xcro3dile/txnsight/internal/logging"
)

// Options configures the listener.
type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Server is the HTTP server for the query and anomaly API and the UI.
type Server struct {
	query   api.QueryService
	anomaly api.AnomalyService
	opts    Options
	logger  *zap.Logger
}

// NewServer creates a new HTTP server.
func NewServer(query api.QueryService, anomaly api.AnomalyService, opts Options, logger *zap.Logger) *Server {
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 15 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 120 * time.Second
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		query:   query,
		anomaly: anomaly,
		opts:    opts,
		logger:  logger.Named("http"),
	}
}

// Handler builds the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// UI
	mux.HandleFunc("GET /{$}", s.handleIndex)

	// API
	mux.HandleFunc("POST "+api.PathQuery, s.handleQuery)
	mux.HandleFunc("POST "+api.PathAnomaly, s.handleAnomaly)
	mux.HandleFunc("GET "+api.PathHealth, s.handleHealth)

	return requestIDMiddleware(logging.RequestLogger(s.logger)(corsMiddleware(mux)))
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	s.logger.Info("server starting", zap.String("addr", s.opts.Addr), zap.Bool("ready", s.query.Ready()))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("shutdown", zap.Error(err))
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleQuery accepts a JSON body or a form field named query_text.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req api.QueryRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Request body must be JSON with a 'query_text' field.")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "Malformed form body.")
			return
		}
		req.QueryText = r.FormValue("query_text")
	}

	text := req.Text()
	if text == "" {
		writeError(w, http.StatusBadRequest, "Missing 'query_text' in request.")
		return
	}
	if !s.query.Ready() {
		writeError(w, http.StatusServiceUnavailable, api.NotReadyMessage)
		return
	}

	resp, err := s.query.Query(r.Context(), text)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.NewQueryPayload(resp))
}

func (s *Server) handleAnomaly(w http.ResponseWriter, r *http.Request) {
	if !s.query.Ready() {
		writeError(w, http.StatusServiceUnavailable, api.NotReadyMessage)
		return
	}

	report, err := s.anomaly.Run(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.NewAnomalyPayload(report))
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.NewHealthPayload(s.query.Ready()))
}

// fail writes the mapped status for err. NoData errors become empty results.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := api.StatusCode(err)
	if status == http.StatusOK {
		writeJSON(w, http.StatusOK, api.NewQueryPayload(nil))
		return
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", w.Header().Get(logging.RequestIDHeader)),
			zap.Error(err))
	}
	writeError(w, status, api.ErrorMessage(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, api.ErrorPayload{Error: msg})
}

// requestIDMiddleware echoes the caller's request id or assigns a new one.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(logging.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(logging.RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+logging.RequestIDHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
