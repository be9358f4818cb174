package main

import (
	"log/slog"

	"github.com/soapscribe/soapscribe/internal/projectconfig"
	"github.com/spf13/cobra"
)

var version = "dev"

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	projectDir string
	envFile    string
	debug      bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "soapscribe",
		Short: "soapscribe - turn recorded clinical conversations into SOAP notes",
		Long: `soapscribe transcribes a recorded medical conversation with speaker labels
and derives a structured SOAP (Subjective, Objective, Assessment, Plan) note
whose statements cite the transcript segments they came from.

Run it as an HTTP service with "serve", or process a single file with "process".`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.debug {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}
			return projectconfig.LoadDotEnv(opts.envFile)
		},
	}

	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&opts.projectDir, "project-dir", ".", "Directory to start searching for "+projectconfig.ConfigFileName)
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Dotenv file loaded before reading the environment")

	// Add subcommands
	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newProcessCommand(opts))
	cmd.AddCommand(newParseCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
