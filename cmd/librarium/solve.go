package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"librarium/internal/codec"
	"librarium/internal/engine"
	"librarium/internal/loader"
	"librarium/internal/oracle"
	"librarium/internal/repository/sqlite"
)

var (
	flagFixture  string
	flagProblem  string
	flagRooms    int
	flagSubmit   bool
	flagOut      string
	flagNoRecord bool
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Probe the oracle and reconstruct the map",
	Long: `Solve runs the reconstruction engine against the configured problem.
With --fixture it runs against a local map through the simulated oracle
instead of the live service. Every observation is appended to the
observation log unless --no-record is set.`,
	RunE: runSolve,
}

func init() {
	solveCmd.Flags().StringVar(&flagFixture, "fixture", "", "fixture map file or directory for the simulated oracle")
	solveCmd.Flags().StringVar(&flagProblem, "problem", "", "problem name (overrides config)")
	solveCmd.Flags().IntVar(&flagRooms, "rooms", 0, "room count (overrides config)")
	solveCmd.Flags().BoolVar(&flagSubmit, "submit", false, "submit the reconstructed map as a guess")
	solveCmd.Flags().StringVar(&flagOut, "out", "solution.json", "write the reconstructed map to this file")
	solveCmd.Flags().BoolVar(&flagNoRecord, "no-record", false, "skip the observation log")
	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	problem := cfg.Problem.Name
	if flagProblem != "" {
		problem = flagProblem
	}
	rooms := cfg.Problem.Rooms
	if flagRooms > 0 {
		rooms = flagRooms
	}

	var client oracle.Client
	if flagFixture != "" {
		catalog, err := loader.LoadCatalog(flagFixture)
		if err != nil {
			return err
		}
		if problem == "" && len(catalog) == 1 {
			for name := range catalog {
				problem = name
			}
		}
		m, ok := catalog[problem]
		if !ok {
			return fmt.Errorf("fixture catalog has no problem %q", problem)
		}
		if flagRooms == 0 {
			rooms = m.RoomCount()
		}
		client = oracle.NewSim(catalog)
	} else {
		if problem == "" {
			return fmt.Errorf("no problem selected; set problem.name or pass --problem")
		}
		client = oracle.NewHTTPClient(cfg.Oracle.BaseURL, cfg.Oracle.AgentID,
			oracle.WithTimeout(time.Duration(cfg.Oracle.Timeout)),
			oracle.WithLogger(logger))
	}
	if rooms < 1 {
		return fmt.Errorf("room count must be at least 1, got %d", rooms)
	}

	if err := client.Select(ctx, problem); err != nil {
		return fmt.Errorf("select problem %q: %w", problem, err)
	}
	logger.Info("problem selected",
		zap.String("problem", problem),
		zap.Int("rooms", rooms),
		zap.Bool("simulated", flagFixture != ""))

	bus, flushEvents := newLoggingBus(logger)
	defer flushEvents()
	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithEventBus(bus),
	}
	if !flagNoRecord {
		repo, err := sqlite.New(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("open observation log: %w", err)
		}
		defer repo.Close()
		session, err := repo.CreateSession(ctx, problem, rooms)
		if err != nil {
			return err
		}
		logger.Info("recording session", zap.String("session", session.ID))
		opts = append(opts, engine.WithRecorder(repo.Recorder(session.ID)))
	}

	eng := engine.New(client, engine.Config{
		RoomCount:     rooms,
		MaxIterations: cfg.Engine.MaxIterations,
		MaxQueries:    cfg.Engine.MaxQueries,
		AllowRepair:   cfg.Engine.AllowRepair,
	}, opts...)

	result, err := eng.Run(ctx)
	if err != nil {
		return err
	}
	return report(ctx, client, result, flagOut)
}

func report(ctx context.Context, client oracle.Client, result *engine.Result, out string) error {
	if !result.Solved && !result.Repaired {
		logger.Warn("reconstruction incomplete",
			zap.Int("iterations", result.Iterations),
			zap.Int("queries", result.QueryCount),
			zap.Int("unresolved", result.UnresolvedCandidates))
		return fmt.Errorf("budget exhausted before the map was reconstructed")
	}

	if result.Repaired {
		logger.Warn("emitting best-effort repaired map",
			zap.Int("rooms", result.Solution.RoomCount()),
			zap.Int("iterations", result.Iterations),
			zap.Int("queries", result.QueryCount))
	} else {
		logger.Info("map reconstructed",
			zap.Int("rooms", result.Solution.RoomCount()),
			zap.Int("iterations", result.Iterations),
			zap.Int("queries", result.QueryCount))
	}

	if out != "" {
		if err := codec.SaveMap(out, result.Solution); err != nil {
			return err
		}
		logger.Info("map written", zap.String("path", out))
	}

	if flagSubmit {
		correct, err := client.Submit(ctx, result.Solution)
		if err != nil {
			return fmt.Errorf("submit guess: %w", err)
		}
		if !correct {
			return fmt.Errorf("guess rejected by the oracle")
		}
		logger.Info("guess accepted")
	}
	return nil
}
