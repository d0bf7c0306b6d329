// Package common provides shared dependency construction for all
// subcommands: configuration and logging, assembled once per invocation.
package common

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/jonesrussell/scamintel/internal/config"
	"github.com/jonesrussell/scamintel/internal/logger"
)

// Deps bundles what every subcommand needs.
type Deps struct {
	Config *config.Config
	Logger logger.Interface
}

// NewDeps loads configuration from the global viper instance and builds the
// logger from it.
func NewDeps() (*Deps, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	return &Deps{Config: cfg, Logger: log}, nil
}
