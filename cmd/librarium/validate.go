package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"librarium/internal/codec"
)

var validateCmd = &cobra.Command{
	Use:   "validate <map file>",
	Short: "Check a solution map document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := codec.LoadMap(args[0])
		if err != nil {
			return err
		}
		logger.Info("map is valid",
			zap.String("path", args[0]),
			zap.Int("rooms", m.RoomCount()),
			zap.Int("connections", len(m.Connections)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
