package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"librarium/internal/engine"
	"librarium/internal/oracle"
	"librarium/internal/repository/sqlite"
)

var (
	flagSession   string
	flagReplayOut string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Re-run a recorded session from the observation log",
	Long: `Replay rebuilds the candidate store from a saved session without
touching the oracle: the engine re-issues the same plans and the recording
answers them. The run fails if it needs a plan the session never probed.`,
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().StringVar(&flagSession, "session", "", "session id to replay")
	replayCmd.Flags().StringVar(&flagReplayOut, "out", "", "write the replayed map to this file")
	_ = replayCmd.MarkFlagRequired("session")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open observation log: %w", err)
	}
	defer repo.Close()

	session, err := repo.GetSession(ctx, flagSession)
	if err != nil {
		return err
	}
	obs, err := repo.Observations(ctx, session.ID)
	if err != nil {
		return err
	}
	if len(obs) == 0 {
		return fmt.Errorf("session %s has no observations", session.ID)
	}
	logger.Info("replaying session",
		zap.String("session", session.ID),
		zap.String("problem", session.Problem),
		zap.Int("rooms", session.RoomCount),
		zap.Int("observations", len(obs)))

	eng := engine.New(oracle.NewReplay(obs), engine.Config{
		RoomCount:     session.RoomCount,
		MaxIterations: cfg.Engine.MaxIterations,
		AllowRepair:   cfg.Engine.AllowRepair,
	}, engine.WithLogger(logger))

	result, err := eng.Run(ctx)
	if err != nil {
		return fmt.Errorf("replay session %s: %w", session.ID, err)
	}
	return report(ctx, oracle.NewReplay(nil), result, flagReplayOut)
}
