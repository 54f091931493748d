// Command ddsched runs the deadline-driven scheduler against one of the
// named benchmark workloads and prints the monitor's periodic report to
// stdout until the --duration elapses or the process is interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/samuel-barrett/ddsched"
)

var (
	bench    string
	duration time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "ddsched",
	Short: "Run the deadline-driven scheduler against a named benchmark workload",
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVar(&bench, "bench", "bench1", "workload preset: bench1, bench2, or bench3")
	rootCmd.Flags().DurationVar(&duration, "duration", 10*time.Second, "how long to run before exiting")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	opt, err := benchOption(bench)
	if err != nil {
		return err
	}

	s, err := scheduler.NewOptions(opt)
	if err != nil {
		return fmt.Errorf("building scheduler: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runCtx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	s.Start(runCtx)
	defer s.Close()

	select {
	case <-runCtx.Done():
	case err := <-s.Fatal():
		return fmt.Errorf("scheduler halted: %w", err)
	}

	return nil
}

func benchOption(name string) (scheduler.Option, error) {
	switch name {
	case "bench1":
		return scheduler.WithBench1(), nil
	case "bench2":
		return scheduler.WithBench2(), nil
	case "bench3":
		return scheduler.WithBench3(), nil
	default:
		return nil, fmt.Errorf("unknown bench preset %q: want bench1, bench2, or bench3", name)
	}
}
