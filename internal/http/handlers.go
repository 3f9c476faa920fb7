package http

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"quotebot/app/internal/db"
)

type healthResponse struct {
	Body struct {
		Status   string `json:"status"`
		Database string `json:"database"`
		Gateway  string `json:"gateway"`
		Stories  int    `json:"stories"`
	}
}

type statsResponse struct {
	Body struct {
		Stories            int   `json:"stories"`
		IndexedLines       int   `json:"indexed_lines"`
		GuildsWithPrefixes int64 `json:"guilds_with_prefixes"`
	}
}

func (s *Server) registerHealthRoute() {
	huma.Get(s.api, "/healthz", s.healthHandler, func(op *huma.Operation) {
		op.Summary = "Health check"
	})
}

func (s *Server) registerStatsRoute() {
	huma.Get(s.api, "/stats", s.statsHandler, func(op *huma.Operation) {
		op.Summary = "Bot statistics"
	})
}

func (s *Server) healthHandler(ctx context.Context, _ *struct{}) (*healthResponse, error) {
	resp := &healthResponse{}
	resp.Body.Status = "ok"
	resp.Body.Database = "ok"
	resp.Body.Stories = s.library.StoryCount()

	sqlDB, err := db.SQLDB(s.db)
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		s.recordError(nil, err, "health check database ping failed")
		resp.Body.Status = "degraded"
		resp.Body.Database = "error"
	}

	resp.Body.Gateway = "down"
	if s.gateway != nil && s.gateway.Connected() {
		resp.Body.Gateway = "connected"
	} else {
		resp.Body.Status = "degraded"
	}

	return resp, nil
}

func (s *Server) statsHandler(ctx context.Context, _ *struct{}) (*statsResponse, error) {
	guilds, err := s.guilds.CountGuildsWithPrefixes(ctx)
	if err != nil {
		s.recordError(nil, err, "counting guilds with prefixes")
		return nil, huma.Error500InternalServerError("collecting bot statistics failed")
	}

	resp := &statsResponse{}
	resp.Body.Stories = s.library.StoryCount()
	resp.Body.IndexedLines = s.library.LineCount()
	resp.Body.GuildsWithPrefixes = guilds

	return resp, nil
}
