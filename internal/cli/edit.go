package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/forPelevin/cleancut/internal/pipeline"
)

func newEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <input>",
		Short: "Edit one local media file and write the result to the outputs directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, args[0])
		},
	}
	cmd.Flags().String("out", "", "Output directory (defaults to paths.outputs)")
	return cmd
}

func runEdit(cmd *cobra.Command, input string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}

	absIn, err := filepath.Abs(input)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Hour)
	defer cancel()

	res, cleanup, err := a.p.Edit(ctx, absIn, a.categories)
	if err != nil {
		return err
	}
	defer cleanup()

	if res.Empty {
		return fmt.Errorf("every span of %s was cut; no output produced", input)
	}

	outDir, _ := cmd.Flags().GetString("out")
	if outDir == "" {
		outDir = a.cfg.Paths.Outputs
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	outPath := filepath.Join(outDir, pipeline.OutputName(absIn, time.Now()))
	if err := copyFile(res.OutputPath, outPath); err != nil {
		return fmt.Errorf("publish output: %w", err)
	}

	a.log.Info(ctx, "edited script: %s", res.Script)
	fmt.Fprintln(cmd.OutOrStdout(), outPath)
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
