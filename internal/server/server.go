package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammad-safakhou/roteiro/config"
	"github.com/mohammad-safakhou/roteiro/internal/llm"
	"github.com/mohammad-safakhou/roteiro/internal/pipeline"
	"github.com/mohammad-safakhou/roteiro/internal/study"
	"github.com/mohammad-safakhou/roteiro/internal/telemetry"
	"github.com/mohammad-safakhou/roteiro/internal/trip"
)

// Server exposes the planning pipelines over HTTP. The capability is
// resolved once at construction and owned by the server for its lifetime.
type Server struct {
	cfg      *config.Config
	provider llm.Provider
	logger   *log.Logger
	metrics  *telemetry.Telemetry
	echo     *echo.Echo
}

// RenderedSection is one labeled tab of generated markdown.
type RenderedSection struct {
	Key     string `json:"key"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// RunResponse is a successful pipeline invocation.
type RunResponse struct {
	RunID     string            `json:"run_id"`
	ElapsedMS int64             `json:"elapsed_ms"`
	Sections  []RenderedSection `json:"sections"`
}

// New builds the server, resolving the capability from cfg exactly once.
func New(cfg *config.Config, provider llm.Provider, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	}

	var metrics *telemetry.Telemetry
	if cfg.Telemetry.Enabled {
		metrics = telemetry.NewTelemetry(prometheus.DefaultRegisterer)
	}

	s := &Server{cfg: cfg, provider: provider, logger: logger, metrics: metrics}
	s.echo = s.buildEcho()
	return s
}

// Run starts the HTTP listener and blocks.
func (s *Server) Run(addr string) error {
	return s.echo.Start(addr)
}

// Handler returns the underlying HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) buildEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		s.logger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	api.POST("/trip/itineraries", s.createItinerary)
	api.POST("/study/materials", s.createStudyMaterial)

	return e
}

func (s *Server) createItinerary(c echo.Context) error {
	var req trip.Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := s.runPipeline(c, trip.Stages(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, renderResponse(result, tripSections()))
}

func (s *Server) createStudyMaterial(c echo.Context) error {
	var req study.Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := s.runPipeline(c, study.Stages(req))
	if err != nil {
		return err
	}
	sections := make([]RenderedSection, 0, 4)
	for _, sec := range study.Sections(req.AnswerKey) {
		sections = append(sections, RenderedSection{Key: sec.Key, Title: sec.Title})
	}
	return c.JSON(http.StatusOK, renderResponse(result, sections))
}

func (s *Server) runPipeline(c echo.Context, stages []pipeline.Stage) (pipeline.Result, error) {
	p, err := pipeline.New(s.provider, stages,
		pipeline.WithLogger(s.logger),
		pipeline.WithTelemetry(s.metrics))
	if err != nil {
		return pipeline.Result{}, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	result, _, err := p.Run(c.Request().Context())
	if err != nil {
		var stageErr *pipeline.StageError
		if errors.As(err, &stageErr) {
			return pipeline.Result{}, echo.NewHTTPError(http.StatusBadGateway, stageErr.Error())
		}
		return pipeline.Result{}, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return result, nil
}

func tripSections() []RenderedSection {
	sections := make([]RenderedSection, 0, 5)
	for _, sec := range trip.Sections() {
		sections = append(sections, RenderedSection{Key: sec.Key, Title: sec.Title})
	}
	return sections
}

func renderResponse(result pipeline.Result, sections []RenderedSection) RunResponse {
	for i := range sections {
		sections[i].Content = result.Outputs.Get(sections[i].Key)
	}
	return RunResponse{
		RunID:     result.RunID,
		ElapsedMS: result.Elapsed.Milliseconds(),
		Sections:  sections,
	}
}
