package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/book-expert/voice-clone/internal/studio"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// Flag names of the generate command.
const (
	flagText   = "text"
	flagVoice  = "voice"
	flagModel  = "model"
	flagOutput = "output"
)

const outputPermissions = 0o600

var errTextRequired = errors.New("--text is required")

type generateOptions struct {
	text    string
	voiceID string
	model   string
	output  string
}

func newGenerateCommand(opts *rootOptions) *cobra.Command {
	genOpts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Synthesize text with the stored API key and record the generation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if genOpts.text == "" {
				return errTextRequired
			}

			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			return generate(cmd, a, genOpts)
		},
	}

	cmd.Flags().StringVar(&genOpts.text, flagText, "", "Text to convert to speech")
	cmd.Flags().StringVar(&genOpts.voiceID, flagVoice, "", "Voice id to clone (default voice when empty)")
	cmd.Flags().StringVar(&genOpts.model, flagModel, "", "Provider model: s1, speech-1.6 or speech-1.5")
	cmd.Flags().StringVar(&genOpts.output, flagOutput, "", "Also copy the generated audio to this file")

	return cmd
}

func generate(cmd *cobra.Command, a *app, genOpts *generateOptions) error {
	var voiceID *string
	if genOpts.voiceID != "" {
		voiceID = &genOpts.voiceID
	}

	result, err := a.service.Synthesize(cmd.Context(), studio.SynthesisInput{
		Text:    genOpts.text,
		VoiceID: voiceID,
		Model:   genOpts.model,
	})
	if err != nil {
		a.log.Error("Failed to generate speech: %v", err)

		return fmt.Errorf("failed to generate speech: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Generated: %s\n", *result.Generation.AudioPath)

	if genOpts.output == "" {
		return nil
	}

	audio, err := a.blobs.Read(cmd.Context(), *result.Generation.AudioPath)
	if err != nil {
		return fmt.Errorf("failed to read generated audio: %w", err)
	}

	err = os.MkdirAll(filepath.Dir(genOpts.output), 0o750)
	if err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	err = os.WriteFile(genOpts.output, audio, outputPermissions)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", genOpts.output, err)
	}

	fmt.Fprintf(out, "Wrote %s to %s\n", humanize.Bytes(uint64(len(audio))), genOpts.output)

	return nil
}
