package handler

import (
	"log/slog"

	"github.com/fieldhq/pro-dispatch/internal/api/auth"
	"github.com/fieldhq/pro-dispatch/internal/dispatch"
	"github.com/fieldhq/pro-dispatch/shared/postgresql"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger   *slog.Logger
	Resolver *dispatch.Resolver
	Verifier *auth.Verifier
	DB       *postgresql.Client
}

// JobsHandler serves the technician job feed
type JobsHandler struct {
	logger   *slog.Logger
	resolver *dispatch.Resolver
}

// NewJobsHandler creates a new JobsHandler instance
func NewJobsHandler(deps *Dependencies) *JobsHandler {
	return &JobsHandler{
		logger:   deps.Logger,
		resolver: deps.Resolver,
	}
}
