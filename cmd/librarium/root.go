package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"librarium/internal/config"
	"librarium/internal/engine"
)

var (
	flagConfig  string
	flagVerbose bool
	flagDB      string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "librarium",
	Short: "Reconstructs an unknown library map by probing the exploration service",
	Long: `Librarium drives the exploration service to reconstruct an unknown
graph of rooms: it probes door by door, disambiguates rooms whose labels
collide, and emits the full bidirectional connection map.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var (
			from string
			err  error
		)
		if flagConfig != "" {
			cfg, from, err = config.LoadFromPath(flagConfig)
		} else {
			cfg, from, err = config.Load()
		}
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		if flagDB != "" {
			cfg.Database.Path = flagDB
		}

		level := cfg.Logging.Level
		if flagVerbose {
			level = "debug"
		}
		logger, err = buildLogger(level)
		if err != nil {
			return err
		}
		if from != "" {
			logger.Debug("config loaded", zap.String("path", from))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "observation log path (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}

func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zc.Build()
}

// newLoggingBus wires an event bus whose events surface as debug logs. The
// returned flush drains and stops the consumer; call it after the engine
// has finished publishing, before the logger syncs.
func newLoggingBus(l *zap.Logger) (*engine.EventBus, func()) {
	bus := engine.NewEventBus()
	ch := make(chan engine.Event, 64)
	done := make(chan struct{})
	bus.Subscribe(ch)
	go func() {
		defer close(done)
		for ev := range ch {
			l.Debug("engine event",
				zap.String("type", string(ev.Type)),
				zap.Any("payload", ev.Payload))
		}
	}()
	flush := func() {
		close(ch)
		<-done
	}
	return bus, flush
}
