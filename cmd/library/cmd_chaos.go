// cmd/library/cmd_chaos.go
package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/naksh1414/Kata-library-Management-System/internal/chaos"
	"github.com/naksh1414/Kata-library-Management-System/internal/client"
)

func chaosCmd() *cobra.Command {
	var (
		addr     string
		settings = chaos.DefaultSettings()
		pause    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "chaos",
		Short: "Run the chaos game day against a running library server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			target := client.New(addr)
			if err := target.Health(ctx); err != nil {
				return fmt.Errorf("chaos: server not healthy: %w", err)
			}

			engine := chaos.NewEngine(logger)
			engine.Register(chaos.Experiments(target, settings)...)

			held, err := engine.RunGameDay(ctx, chaos.GameDay{
				Name:      "Library Chaos Game Day",
				Date:      time.Now(),
				Scenarios: engine.Experiments(),
				Pause:     pause,
			})
			if err != nil {
				return fmt.Errorf("chaos: %w", err)
			}
			if !held {
				return errors.New("chaos: at least one hypothesis did not hold")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "library server base URL")
	cmd.Flags().IntVar(&settings.Concurrency, "concurrency", settings.Concurrency, "concurrent actors per experiment")
	cmd.Flags().IntVar(&settings.Rounds, "rounds", settings.Rounds, "borrow/return rounds per actor")
	cmd.Flags().IntVar(&settings.Books, "books", settings.Books, "books used by the churn experiment")
	cmd.Flags().DurationVar(&settings.Duration, "duration", settings.Duration, "observation window per experiment")
	cmd.Flags().DurationVar(&settings.SampleInterval, "sample-interval", settings.SampleInterval, "probe sampling interval")
	cmd.Flags().DurationVar(&pause, "pause", 0, "pause between experiments")
	return cmd
}
