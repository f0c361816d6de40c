package storage

import (
	"context"

	"hideseek/internal/model"
)

// Store persists run summaries and their episode logs.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunSummary) error
	GetRun(ctx context.Context, id string) (model.RunSummary, bool, error)
	// ListRuns returns every run, oldest first.
	ListRuns(ctx context.Context) ([]model.RunSummary, error)
	SaveEpisodes(ctx context.Context, runID string, episodes []model.EpisodeRecord) error
	GetEpisodes(ctx context.Context, runID string) ([]model.EpisodeRecord, bool, error)
}
