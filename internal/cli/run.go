package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/forPelevin/podclip/internal/config"
	"github.com/forPelevin/podclip/internal/logger"
	"github.com/forPelevin/podclip/internal/pipeline"
	"github.com/forPelevin/podclip/internal/usecase"
)

func run(cmd *cobra.Command, input string) error {
	settings, cfgPath, cfgExists, err := loadSettings(cmd, os.Getenv)
	if err != nil {
		return err
	}
	seed, _ := cmd.Flags().GetInt64("seed")

	out := cmd.OutOrStdout()
	log := logger.New(logger.Options{
		Level:  settings.Logging.Level,
		Format: settings.Logging.Format,
		Writer: out,
	})
	if cfgExists {
		log.Info().Str("path", cfgPath).Msg("config loaded")
	}
	if settings.ActiveBackend().APIKey == "" {
		log.Warn().Str("backend", settings.Backend).Msg("no API key configured; the backend will reject the request")
	}

	absIn, err := filepath.Abs(input)
	if err != nil {
		return err
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := pipeline.Run(ctx, pipeline.Config{
		Recording: absIn,
		Settings:  settings,
		Seed:      seed,
		Logger:    log,
	})
	switch {
	case err == nil:
	case errors.Is(err, usecase.ErrBackend), errors.Is(err, usecase.ErrProbe):
		// Reported, not fatal: the run simply produced no clips.
		log.Error().Err(err).Msg("run failed")
	default:
		return err
	}

	fmt.Fprintln(out, renderSummary(res, tableStyle(out)))
	return nil
}

// loadSettings resolves config, env and flags, in increasing precedence.
func loadSettings(cmd *cobra.Command, env func(string) string) (*config.Config, string, bool, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, resolved, exists, err := config.Load(path, env)
	if err != nil {
		return nil, "", false, err
	}

	changed := false
	if v, _ := cmd.Flags().GetString("out"); strings.TrimSpace(v) != "" {
		cfg.Output.Dir = strings.TrimSpace(v)
		changed = true
	}
	if v, _ := cmd.Flags().GetString("backend"); strings.TrimSpace(v) != "" {
		cfg.Backend = strings.ToLower(strings.TrimSpace(v))
		changed = true
	}
	if changed {
		if err := cfg.Validate(); err != nil {
			return nil, "", false, err
		}
	}
	return cfg, resolved, exists, nil
}
