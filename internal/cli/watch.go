package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/forPelevin/cleancut/internal/pipeline"
	"github.com/forPelevin/cleancut/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a directory and edit every media file dropped into it",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}
	cmd.Flags().String("input", "", "Directory to watch (defaults to paths.input)")
	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}

	inputDir, _ := cmd.Flags().GetString("input")
	if inputDir == "" {
		inputDir = a.cfg.Paths.Input
	}
	if inputDir == "" {
		return fmt.Errorf("watch directory is required (--input or paths.input)")
	}
	for _, dir := range []string{inputDir, a.cfg.Paths.Outputs} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w, err := watcher.New(inputDir, a.cfg.Performance.MaxConcurrent, a.log, func(ctx context.Context, path string) {
		res, cleanup, err := a.p.Edit(ctx, path, a.categories)
		if err != nil {
			a.log.Error(ctx, "edit %s failed: %v", path, err)
			return
		}
		defer cleanup()
		if res.Empty {
			a.log.Warn(ctx, "every span of %s was cut; nothing written", path)
			return
		}
		outPath := filepath.Join(a.cfg.Paths.Outputs, pipeline.OutputName(path, time.Now()))
		if err := copyFile(res.OutputPath, outPath); err != nil {
			a.log.Error(ctx, "publish %s: %v", outPath, err)
			return
		}
		a.log.Info(ctx, "edited %s -> %s", path, outPath)
	})
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
