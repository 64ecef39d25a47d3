// Package ginapi serves the query and anomaly API on gin.
package ginapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/0xcro3dile/txnsight/internal/infrastructure/api"
)

// Options configures the listener.
type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Server is the gin front end.
type Server struct {
	query   api.QueryService
	anomaly api.AnomalyService
	opts    Options
	logger  *zap.Logger
}

// NewServer creates a gin server over the given use cases.
func NewServer(query api.QueryService, anomaly api.AnomalyService, opts Options, logger *zap.Logger) *Server {
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
		logger:  logger.Named("gin"),
	}
}

// Engine builds the gin engine with routes and middleware.
func (s *Server) Engine() *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery(), requestID(), requestLogger(s.logger))

	r.POST(api.PathQuery, s.Query)
	r.POST(api.PathAnomaly, s.RunAnomalyDetection)
	r.GET(api.PathHealth, s.Health)
	return r
}

// Start runs the server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.Engine(),
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

// Query answers POST /query. The body is JSON or a form with query_text.
func (s *Server) Query(c *gin.Context) {
	var req api.QueryRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorPayload{Error: "Request body must carry a 'query_text' field."})
		return
	}

	text := req.Text()
	if text == "" {
		c.JSON(http.StatusBadRequest, api.ErrorPayload{Error: "Missing 'query_text' in request."})
		return
	}
	if !s.query.Ready() {
		c.JSON(http.StatusServiceUnavailable, api.ErrorPayload{Error: api.NotReadyMessage})
		return
	}

	resp, err := s.query.Query(c.Request.Context(), text)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.NewQueryPayload(resp))
}

// RunAnomalyDetection answers POST /run_anomaly_detection.
func (s *Server) RunAnomalyDetection(c *gin.Context) {
	if !s.query.Ready() {
		c.JSON(http.StatusServiceUnavailable, api.ErrorPayload{Error: api.NotReadyMessage})
		return
	}

	report, err := s.anomaly.Run(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.NewAnomalyPayload(report))
}

// Health answers GET /health.
func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, api.NewHealthPayload(s.query.Ready()))
}

func (s *Server) fail(c *gin.Context, err error) {
	status := api.StatusCode(err)
	if status == http.StatusOK {
		c.JSON(http.StatusOK, api.NewQueryPayload(nil))
		return
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err))
	}
	c.JSON(status, api.ErrorPayload{Error: api.ErrorMessage(err)})
}
