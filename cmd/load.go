package cmd

import (
	"fmt"
	"time"

	"github.com/iplan/cellact/internal/config"
	"github.com/iplan/cellact/internal/logger"
)

func loadConfig() (config.Config, *time.Location, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return config.Config{}, nil, err
	}
	logger.Init(cfg.Log.Level)

	return cfg, loc, nil
}
