package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := &cobra.Command{
		Use:          "cleancut",
		Short:        "Cut filler words, false starts and dead air out of a recording",
		SilenceUsage: true,
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	root.PersistentFlags().String("config", "", "Path to YAML config file")
	root.PersistentFlags().String("categories", "", "Comma-separated edit categories (filler,false_start,repetition,silence); empty means all")

	root.AddCommand(newEditCmd(), newServeCmd(), newWatchCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
