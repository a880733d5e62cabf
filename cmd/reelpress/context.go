package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"reelpress/internal/api"
	"reelpress/internal/config"
	"reelpress/internal/database"
	"reelpress/internal/jobstore"
	"reelpress/internal/logging"
	"reelpress/internal/queue"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg)
}

// stores bundles the sqlite-backed stores used by operator commands.
type stores struct {
	db    *database.DB
	queue *queue.Store
	jobs  *jobstore.Store
	admin *api.Service
}

func (c *commandContext) withStores(ctx context.Context, fn func(*stores) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	db, err := database.Open(ctx, cfg.DatabasePath())
	if err != nil {
		return err
	}
	defer db.Close()

	q := queue.New(db, queue.Options{
		VisibilityTimeout: cfg.VisibilityTimeout(),
		MaxReceives:       cfg.Queue.MaxReceives,
		Logger:            logging.NewNop(),
	})
	jobs := jobstore.New(db)
	return fn(&stores{db: db, queue: q, jobs: jobs, admin: api.NewService(q, jobs, nil)})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
