package commands

import (
	"fmt"

	"github.com/maastricht-university/asr-eval/evaluation"
	"github.com/maastricht-university/asr-eval/orchestrator"
	"github.com/spf13/cobra"
)

type evaluateFlags struct {
	input      string
	format     string
	dimensions []string
	speakers   []string
}

func (f *evaluateFlags) register(cmd *cobra.Command, withInput bool) {
	if withInput {
		cmd.Flags().StringVarP(&f.input, "input", "i", "", "predictions CSV (default metadata/<backend>_predictions.csv)")
	}
	cmd.Flags().StringVarP(&f.format, "format", "f", orchestrator.FormatText, "report format: text, yaml or json")
	cmd.Flags().StringSliceVar(&f.dimensions, "dimensions", nil, "dimensions to aggregate: overall, speaker, category")
	cmd.Flags().StringSliceVar(&f.speakers, "speaker", nil, "speaker expected to have utterances (repeatable)")
}

func (f *evaluateFlags) options() (orchestrator.EvaluateOptions, error) {
	opts := orchestrator.EvaluateOptions{
		Input:            f.input,
		Format:           f.format,
		ExpectedSpeakers: f.speakers,
	}
	for _, s := range f.dimensions {
		d, ok := evaluation.ParseDimension(s)
		if !ok {
			return opts, fmt.Errorf("unknown dimension %q: must be overall, speaker or category", s)
		}
		opts.Dimensions = append(opts.Dimensions, d)
	}
	return opts, nil
}

func newEvaluateCommand(a *app) *cobra.Command {
	var (
		backend string
		flags   evaluateFlags
	)
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score a backend's predictions with WER and CER",
		Long: `Reads the predictions of one backend, normalizes reference and predicted
text, and reports macro-averaged WER and CER overall, per speaker and for
common vs personal prompts.

The predictions file must contain text, speaker_id, is_common and
<backend>_pred columns.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			_, err = a.pipeline().Evaluate(cmd.Context(), backend, opts)
			return err
		},
	}
	cmd.Flags().StringVarP(&backend, "backend", "b", "", "backend whose <backend>_pred column is scored")
	_ = cmd.MarkFlagRequired("backend")
	flags.register(cmd, true)
	return cmd
}
