package setup

import (
	"github.com/jgbyrne/plainchant/internal/service"
	"github.com/jgbyrne/plainchant/internal/storage/fs"
	"github.com/jgbyrne/plainchant/internal/storage/pg"
	"github.com/jgbyrne/plainchant/shared/config"
	"github.com/jgbyrne/plainchant/shared/logger"
)

// Dependencies holds the wired core handed to the embedding web layer.
type Dependencies struct {
	Storage    *pg.Storage
	Rack       *fs.Rack
	Moderation *service.ModerationCache
	Submission *service.Submission
	Deletion   *service.Deletion
	Boards     *service.Boards
}

// SetupDependencies initializes the core bottom-up: store, file rack,
// moderation cache (seeded from persisted bans), then the pipeline services.
// One moderation cache per process, passed explicitly — no globals.
func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	logger.Initialize(cfg.Public.LogLevel, cfg.Public.LogJSON)

	storage, err := pg.New(cfg)
	if err != nil {
		return nil, err
	}

	rack, err := fs.New(cfg.Public.MediaDir)
	if err != nil {
		return nil, err
	}

	moderation, err := service.NewModerationCache(storage)
	if err != nil {
		return nil, err
	}

	deletion := service.NewDeletion(storage, rack)
	submission := service.NewSubmission(storage, moderation, deletion,
		cfg.Public.OriginalCooldown, cfg.Public.ReplyCooldown)
	boards := service.NewBoards(storage)

	return &Dependencies{
		Storage:    storage,
		Rack:       rack,
		Moderation: moderation,
		Submission: submission,
		Deletion:   deletion,
		Boards:     boards,
	}, nil
}
