package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "podclip <recording>",
		Short:        "Cut highlight clips from a podcast recording",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0])
		},
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	root.Flags().String("config", "", "Path to podclip.toml (default ./podclip.toml when present)")
	root.Flags().String("out", "", "Output directory (default from config, else current directory)")
	root.Flags().String("backend", "", "Analysis backend: gemini or openai")

	// Hidden: pin the prompt variation for reproducible runs.
	root.Flags().Int64("seed", 0, "Prompt seed (0 = random)")
	_ = root.Flags().MarkHidden("seed")

	return root
}
