package api

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/james-see/pitch2tab/pkg/logger"
	"github.com/james-see/pitch2tab/pkg/pipeline"
	"github.com/james-see/pitch2tab/pkg/pitch"
	"github.com/james-see/pitch2tab/pkg/tab"
	"github.com/james-see/pitch2tab/pkg/tab/tunings"
)

// TabOptions overrides the configured tab settings for one request.
type TabOptions struct {
	Tuning         string   `json:"tuning,omitempty" form:"tuning"`
	Tempo          *float64 `json:"tempo,omitempty" form:"tempo"`
	Quantize       *bool    `json:"quantize,omitempty" form:"quantize"`
	Width          *int     `json:"width,omitempty" form:"width"`
	Threshold      *float64 `json:"confidence_threshold,omitempty" form:"confidence_threshold"`
	MinFret        *int     `json:"min_fret,omitempty" form:"min_fret"`
	MaxFret        *int     `json:"max_fret,omitempty" form:"max_fret"`
	ToleranceCents *float64 `json:"tolerance_cents,omitempty" form:"tolerance_cents"`
	HopMS          *int     `json:"hop_ms,omitempty" form:"hop_ms"`
}

// TabRequest is the body of POST /api/v1/tabs and /api/v1/tabs/midi.
type TabRequest struct {
	TabOptions
	Samples []tab.PitchSample `json:"samples"`
}

// TabResponse carries a synthesized document and its rendering.
type TabResponse struct {
	Document    *tab.Document              `json:"document"`
	Text        string                     `json:"text"`
	Diagnostics map[tab.DiagnosticKind]int `json:"diagnostic_counts"`
}

// JobRequest is the body of POST /api/v1/jobs.
type JobRequest struct {
	Input string `json:"input" binding:"required"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pitch2tab",
	})
}

// listTunings godoc
// @Summary List tuning presets
// @Description Returns every named tuning, lowest string first
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]tab.Tuning
// @Router /api/v1/tunings [get]
func listTunings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tunings": tunings.All()})
}

// listFormats godoc
// @Summary List supported pitch track formats
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/formats [get]
func listFormats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"formats":    []pitch.Format{pitch.FormatCSV, pitch.FormatJSON, pitch.FormatMIDI},
		"extensions": pitch.Supported(),
	})
}

// getConfig godoc
// @Summary Show the effective configuration
// @Description Returns the server configuration without secrets
// @Tags info
// @Produce json
// @Success 200 {object} config.Config
// @Router /api/v1/config [get]
func (s *Server) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, s.cfg)
}

// createTab godoc
// @Summary Synthesize tab from pitch samples
// @Description Filters, maps, quantizes and renders a JSON pitch track
// @Tags tabs
// @Accept json
// @Produce json
// @Param request body TabRequest true "Pitch samples and optional settings"
// @Success 200 {object} TabResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/tabs [post]
func (s *Server) createTab(c *gin.Context) {
	var req TabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, fmt.Errorf("invalid request body: %w", err))
		return
	}
	s.respondTab(c, req.Samples, req.TabOptions)
}

// uploadTab godoc
// @Summary Synthesize tab from an uploaded pitch track
// @Description Upload a CSV, JSON or MIDI pitch track; settings come from query parameters
// @Tags tabs
// @Accept multipart/form-data
// @Produce json
// @Produce plain
// @Param file formData file true "Pitch track"
// @Param tuning query string false "Tuning preset or six notes"
// @Param tempo query number false "Tempo in BPM"
// @Param width query int false "Line width"
// @Param format query string false "json (default) or text"
// @Success 200 {object} TabResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/tabs/upload [post]
func (s *Server) uploadTab(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		badRequest(c, errors.New("no file uploaded"))
		return
	}
	defer func() { _ = file.Close() }()

	var opts TabOptions
	if err := c.ShouldBindQuery(&opts); err != nil {
		badRequest(c, fmt.Errorf("invalid query: %w", err))
		return
	}

	samples, err := pitch.ReadFrom(file, header.Filename)
	if err != nil {
		badRequest(c, err)
		return
	}

	if c.Query("format") == "text" {
		doc, text, err := s.synthesize(samples, opts)
		if err != nil {
			badRequest(c, err)
			return
		}
		logSynthesis(c, header.Filename, doc)
		c.String(http.StatusOK, text)
		return
	}
	s.respondTab(c, samples, opts)
}

// createMIDI godoc
// @Summary Synthesize a MIDI file from pitch samples
// @Tags tabs
// @Accept json
// @Produce audio/midi
// @Param request body TabRequest true "Pitch samples and optional settings"
// @Success 200 {file} binary
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/tabs/midi [post]
func (s *Server) createMIDI(c *gin.Context) {
	var req TabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, fmt.Errorf("invalid request body: %w", err))
		return
	}
	cfg, err := s.tabConfig(req.TabOptions)
	if err != nil {
		badRequest(c, err)
		return
	}
	doc, err := tab.Synthesize(tab.Samples(req.Samples), cfg)
	if err != nil {
		badRequest(c, err)
		return
	}
	data, err := tab.GenerateMIDI(doc)
	if err != nil {
		logger.Error("MIDI generation failed", err, logger.WithContext(c))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), RequestID: c.GetString("request_id")})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=tab.mid")
	c.Data(http.StatusOK, "audio/midi", data)
}

// createJob godoc
// @Summary Plan a pipeline job
// @Description Classifies the input and returns the file layout for the external stages
// @Tags jobs
// @Accept json
// @Produce json
// @Param request body JobRequest true "URL or audio file path"
// @Success 201 {object} pipeline.Job
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/jobs [post]
func (s *Server) createJob(c *gin.Context) {
	var req JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, fmt.Errorf("invalid request body: %w", err))
		return
	}
	job, err := pipeline.NewPlan(s.cfg, req.Input)
	if err != nil {
		badRequest(c, err)
		return
	}
	fields := logger.WithContext(c)
	fields["job_id"] = job.ID
	fields["source"] = string(job.Source)
	logger.Info("Job planned", fields)

	c.JSON(http.StatusCreated, job)
}

func (s *Server) respondTab(c *gin.Context, samples []tab.PitchSample, opts TabOptions) {
	doc, text, err := s.synthesize(samples, opts)
	if err != nil {
		badRequest(c, err)
		return
	}
	logSynthesis(c, "", doc)
	c.JSON(http.StatusOK, TabResponse{
		Document:    doc,
		Text:        text,
		Diagnostics: doc.CountDiagnostics(),
	})
}

func (s *Server) synthesize(samples []tab.PitchSample, opts TabOptions) (*tab.Document, string, error) {
	cfg, err := s.tabConfig(opts)
	if err != nil {
		return nil, "", err
	}
	doc, err := tab.Synthesize(tab.Samples(samples), cfg)
	if err != nil {
		return nil, "", err
	}
	text, err := tab.RenderText(doc, cfg.RenderOptions())
	if err != nil {
		return nil, "", err
	}
	return doc, text, nil
}

// tabConfig applies request overrides to a copy of the configured settings.
func (s *Server) tabConfig(opts TabOptions) (tab.Config, error) {
	base := *s.cfg
	if opts.Tuning != "" {
		base.Tab.Tuning = opts.Tuning
	}
	cfg, err := base.TabConfig()
	if err != nil {
		return tab.Config{}, err
	}
	applyOptions(&cfg, opts)
	if err := cfg.Validate(); err != nil {
		return tab.Config{}, err
	}
	return cfg, nil
}

func applyOptions(cfg *tab.Config, opts TabOptions) {
	if opts.Tempo != nil {
		cfg.Tempo = *opts.Tempo
	}
	if opts.Quantize != nil {
		cfg.Quantize = *opts.Quantize
	}
	if opts.Width != nil {
		cfg.Width = *opts.Width
	}
	if opts.Threshold != nil {
		cfg.ConfidenceThreshold = *opts.Threshold
	}
	if opts.MinFret != nil {
		cfg.MinFret = *opts.MinFret
	}
	if opts.MaxFret != nil {
		cfg.MaxFret = *opts.MaxFret
	}
	if opts.ToleranceCents != nil {
		cfg.ToleranceCents = *opts.ToleranceCents
	}
	if opts.HopMS != nil {
		cfg.Hop = time.Duration(*opts.HopMS) * time.Millisecond
	}
}

func logSynthesis(c *gin.Context, filename string, doc *tab.Document) {
	fields := logger.WithContext(c)
	fields["events"] = len(doc.Events)
	fields["tuning"] = doc.Tuning.Name
	fields["tempo"] = doc.Tempo
	for kind, n := range doc.CountDiagnostics() {
		fields[string(kind)] = n
	}
	if filename != "" {
		fields["file"] = filepath.Base(filename)
	}
	logger.Debug("Tab synthesized", fields)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:     strings.ReplaceAll(err.Error(), "\n", "; "),
		RequestID: c.GetString("request_id"),
	})
}
