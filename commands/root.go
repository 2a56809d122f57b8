package commands

import (
	"fmt"
	"io"

	"github.com/maastricht-university/asr-eval/config"
	"github.com/maastricht-university/asr-eval/orchestrator"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "dev"

// app carries what every subcommand needs once the root has loaded it.
type app struct {
	configPath string
	logLevel   string

	cfg *config.Root
	log *logrus.Logger
	out io.Writer
}

func (a *app) pipeline() *orchestrator.Pipeline {
	return orchestrator.NewPipeline(a.cfg, a.log, a.out)
}

func NewRootCommand() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "asreval",
		Short: "Evaluate ASR transcripts against reference text",
		Long: `asreval drives an ASR evaluation dataset through preprocessing and
transcription services and scores the predictions with word and character
error rates, overall, per speaker and per prompt category.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default config/$CONFIG_ENV/config.yaml)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (overrides pipeline.log_level)")

	cmd.AddCommand(newPreprocessCommand(a))
	cmd.AddCommand(newTranscribeCommand(a))
	cmd.AddCommand(newEvaluateCommand(a))
	cmd.AddCommand(newRunCommand(a))
	cmd.AddCommand(newHistoryCommand(a))
	cmd.AddCommand(newConfigCommand(a))
	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	conf, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = conf
	a.out = cmd.OutOrStdout()

	level := a.logLevel
	if level == "" {
		level = conf.Pipeline.LogLvl
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	a.log = logrus.New()
	a.log.SetOutput(cmd.ErrOrStderr())
	a.log.SetLevel(lvl)
	a.log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}

// Execute runs the command tree with os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}
