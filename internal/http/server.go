// Package http serves the bot's operational API: health and stats endpoints
// used by deploy tooling. All user-facing output goes through Discord, not
// here.
package http

import (
	stdhttp "net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"quotebot/app/internal/guild"
	"quotebot/app/internal/story"
)

// GatewayStatus reports whether the Discord gateway connection is up.
type GatewayStatus interface {
	Connected() bool
}

// Options configures the ops server wiring.
type Options struct {
	Library   *story.Library
	Guilds    guild.Repository
	Database  *gorm.DB
	Gateway   GatewayStatus
	Logger    *logrus.Logger
	SentryHub *sentry.Hub
}

// Server wires the ops API via Huma over a standard library mux.
type Server struct {
	api     huma.API
	mux     *stdhttp.ServeMux
	library *story.Library
	guilds  guild.Repository
	db      *gorm.DB
	gateway GatewayStatus
	logger  *logrus.Logger
	sentry  *sentry.Hub
}

// NewServer constructs the ops server.
func NewServer(opts Options) (*Server, error) {
	if opts.Library == nil {
		return nil, eris.New("story library is required")
	}
	if opts.Guilds == nil {
		return nil, eris.New("guild repository is required")
	}
	if opts.Database == nil {
		return nil, eris.New("database is required")
	}

	mux := stdhttp.NewServeMux()
	config := huma.DefaultConfig("Quotebot Ops", "1.0.0")

	api := humago.New(mux, config)

	srv := &Server{
		api:     api,
		mux:     mux,
		library: opts.Library,
		guilds:  opts.Guilds,
		db:      opts.Database,
		gateway: opts.Gateway,
		logger:  opts.Logger,
		sentry:  opts.SentryHub,
	}

	srv.registerMiddlewares()
	srv.registerRoutes()

	return srv, nil
}

// Handler exposes the underlying HTTP handler for wiring into the application.
func (s *Server) Handler() stdhttp.Handler {
	return s.mux
}

func (s *Server) registerMiddlewares() {
	s.api.UseMiddleware(
		s.sentryMiddleware(),
		s.recoveryMiddleware(),
		s.requestIDMiddleware(),
		s.loggingMiddleware(),
	)
}

func (s *Server) registerRoutes() {
	s.registerHealthRoute()
	s.registerStatsRoute()
}

func (s *Server) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) recordError(fields logrus.Fields, err error, message string) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("error", err.Error())
		if len(fields) > 0 {
			entry = entry.WithFields(fields)
		}
		entry.Error(message)
	}

	if s.sentry != nil {
		s.sentry.CaptureException(err)
	}
}
