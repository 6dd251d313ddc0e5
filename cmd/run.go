package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/prepbuddy/internal/app"
	"github.com/abhisek/prepbuddy/internal/config"
	"github.com/abhisek/prepbuddy/internal/incentives"
	"github.com/abhisek/prepbuddy/internal/llm"
	"github.com/abhisek/prepbuddy/internal/logging"
	"github.com/abhisek/prepbuddy/internal/plangen"
	"github.com/abhisek/prepbuddy/internal/store"
)

// session holds everything a command needs for one invocation.
type session struct {
	cmd    *cobra.Command
	cfg    config.Config
	logger *zap.Logger
	kv     store.KV
	ctrl   *app.Controller
	json   bool
}

// loadConfig reads the config file and applies the --db override.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	file, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(file)
	if err != nil {
		return config.Config{}, err
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.Store.Backend = store.BackendSQLite
		cfg.Store.Path = p
	}
	return cfg, nil
}

// openSession loads config, opens the store and builds the controller.
// The plan generator is wired only when an LLM backend is configured.
func openSession(cmd *cobra.Command) (*session, error) {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging())
	if err != nil {
		return nil, err
	}

	kv, err := store.OpenBackend(ctx, cfg.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	mode, _ := incentives.ParseDateMode(cfg.Streak.Mode)
	epoch, _ := cfg.StreakEpoch()
	opts := app.Options{
		KV:       kv,
		Logger:   logger,
		DateMode: mode,
		Epoch:    epoch,
	}

	if llmCfg, ok := llm.Discover(cfg.LLMConfig()); ok {
		provider, err := llm.NewProvider(ctx, llmCfg, logger)
		if err != nil {
			logger.Warn("llm provider unavailable", zap.Error(err))
		} else {
			opts.Drafter = plangen.New(provider, plangen.DefaultConfig())
		}
	}

	ctrl, err := app.New(ctx, opts)
	if err != nil {
		kv.Close()
		return nil, err
	}
	asJSON, _ := cmd.Flags().GetBool("json")
	return &session{cmd: cmd, cfg: cfg, logger: logger, kv: kv, ctrl: ctrl, json: asJSON}, nil
}

func (s *session) Close() {
	if err := s.kv.Close(); err != nil {
		s.logger.Warn("close store", zap.Error(err))
	}
	_ = s.logger.Sync()
}

// print writes v as JSON under --json, otherwise the styled text.
func (s *session) print(v any, styled string) error {
	if s.json {
		return printJSON(s.cmd.OutOrStdout(), v)
	}
	printLine(s.cmd, styled)
	return nil
}

// withSession runs fn with an open session and closes it afterwards.
func withSession(cmd *cobra.Command, fn func(*session) error) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
