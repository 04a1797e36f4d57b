// main package for the voice-clone service
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Flag names shared by all subcommands.
const (
	flagConfig  = "config"
	flagEnvFile = "env-file"
)

const defaultEnvFile = ".env"

type rootOptions struct {
	configPath string
	envFile    string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{
		configPath: "",
		envFile:    defaultEnvFile,
	}

	rootCmd := &cobra.Command{
		Use:           "voice-clone",
		Short:         "Voice cloning studio backed by the Fish Audio text-to-speech API",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `voice-clone stores reference voice clips, synthesizes speech with the
Fish Audio API and keeps a history of generations.

Run "voice-clone serve" to start the web studio.`,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, flagConfig, "",
		"Path to a TOML config file (defaults to the configurator search)")
	rootCmd.PersistentFlags().StringVar(&opts.envFile, flagEnvFile, defaultEnvFile,
		"Optional .env file with VOICE_CLONE_* overrides")

	rootCmd.AddCommand(
		newServeCommand(opts),
		newMigrateCommand(opts),
		newGenerateCommand(opts),
	)

	return rootCmd
}

func main() {
	err := newRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "voice-clone exited with error: %v\n", err)
		os.Exit(1)
	}
}
