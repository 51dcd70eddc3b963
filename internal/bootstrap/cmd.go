package bootstrap

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the CLI. The bare binary prints help; serve
// starts the backend.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "autocaption",
		Short:        "Local video captioning backend",
		Long:         "autocaption transcribes and translates video captions locally using ffmpeg, whisper.cpp, and an OpenAI-compatible translation server.",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCommand())
	return root
}

func newServeCommand() *cobra.Command {
	var opts Options

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the captioning HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := New(opts)
			if err != nil {
				return err
			}
			return app.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides settings)")
	cmd.Flags().StringVar(&opts.DataDir, "data-dir", "", "project data directory (overrides settings)")
	cmd.Flags().BoolVar(&opts.OpenBrowser, "open-browser", false, "open the UI in the default browser after startup")
	return cmd
}
