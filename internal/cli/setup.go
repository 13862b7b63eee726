package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forPelevin/cleancut/internal/config"
	"github.com/forPelevin/cleancut/internal/logger"
	"github.com/forPelevin/cleancut/internal/pipeline"
	"github.com/forPelevin/cleancut/internal/types"
)

type app struct {
	cfg        config.Config
	log        logger.Logger
	p          *pipeline.Pipeline
	categories []types.CutReason
}

// setup wires config, logger and pipeline for every subcommand.
func setup(cmd *cobra.Command) (*app, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	log := logger.New(cfg.Logging.Level)
	p, err := pipeline.New(pipeline.FromConfig(cfg, log))
	if err != nil {
		return nil, err
	}

	rawCats, _ := cmd.Flags().GetString("categories")
	categories, err := pipeline.ParseCategories(rawCats)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, log: log, p: p, categories: categories}, nil
}
