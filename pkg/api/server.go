// Package api provides the REST API server for pitch2tab
package api

import (
	"fmt"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/james-see/pitch2tab/pkg/config"
	"github.com/james-see/pitch2tab/pkg/logger"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title pitch2tab API
// @version 1.0
// @description API for turning pitch tracks into guitar tablature
// @host localhost:8080
// @BasePath /

// maxUploadSize bounds multipart pitch track uploads.
const maxUploadSize = 32 << 20

// Server serves the API for one configuration. Handlers copy the tab
// settings per request, so concurrent requests never share mutable state.
type Server struct {
	cfg *config.Config
}

// NewServer creates a server for cfg
func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

// Router builds the gin engine with every route and middleware
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = maxUploadSize

	r.Use(RecoverWithSentry())
	if sentry.CurrentHub().Client() != nil {
		r.Use(SentryMiddleware())
	}
	r.Use(RequestTracking())
	r.Use(corsMiddleware())

	r.GET("/health", healthCheck)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/tunings", listTunings)
		v1.GET("/formats", listFormats)
		v1.GET("/config", s.getConfig)
		v1.POST("/tabs", s.createTab)
		v1.POST("/tabs/upload", s.uploadTab)
		v1.POST("/tabs/midi", s.createMIDI)
		v1.POST("/jobs", s.createJob)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// StartServer starts the API server on the configured port
func StartServer(cfg *config.Config) error {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info("Starting API server", logger.Fields{
		"addr":        addr,
		"environment": cfg.Server.Environment,
	})
	return NewServer(cfg).Router().Run(addr)
}
