package commands

import (
	"fmt"

	"github.com/maastricht-university/asr-eval/orchestrator"
	"github.com/spf13/cobra"
)

func newPreprocessCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "preprocess",
		Short: "Resample, trim and normalize the raw recordings",
		Long: `Sends every recording listed in metadata/metadata.csv to the preprocessing
service and writes metadata/metadata_processed.csv. Missing or empty
recordings are skipped with a warning.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := a.pipeline().Preprocess(cmd.Context())
			if err != nil {
				return err
			}
			printStage(a, stats)
			return nil
		},
	}
}

func newTranscribeCommand(a *app) *cobra.Command {
	var backend string
	cmd := &cobra.Command{
		Use:   "transcribe",
		Short: "Transcribe the processed recordings with one ASR backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := a.pipeline().Transcribe(cmd.Context(), backend)
			if err != nil {
				return err
			}
			printStage(a, stats)
			return nil
		},
	}
	cmd.Flags().StringVarP(&backend, "backend", "b", "", "backend name from the config (e.g. whisper, wav2vec2)")
	_ = cmd.MarkFlagRequired("backend")
	return cmd
}

func newRunCommand(a *app) *cobra.Command {
	var (
		backend string
		flags   evaluateFlags
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Preprocess, transcribe and evaluate in one go",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			_, err = a.pipeline().Run(cmd.Context(), backend, opts)
			return err
		},
	}
	cmd.Flags().StringVarP(&backend, "backend", "b", "", "backend name from the config")
	_ = cmd.MarkFlagRequired("backend")
	flags.register(cmd, false)
	return cmd
}

func printStage(a *app, s orchestrator.StageStats) {
	fmt.Fprintf(a.out, "%s: %d of %d rows written, %d skipped -> %s\n", s.Stage, s.Written, s.Total, s.Skipped, s.Output)
}
