package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/maastricht-university/asr-eval/store"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

func newHistoryCommand(a *app) *cobra.Command {
	var (
		backend string
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past evaluation runs from the results store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.cfg.Store.Enabled {
				return fmt.Errorf("results store is disabled (store.enabled=false)")
			}
			s, err := store.Open(cmd.Context(), a.cfg.Store.Path, a.log)
			if err != nil {
				return err
			}
			defer s.Close()

			runs, err := s.ListRuns(cmd.Context(), backend, limit)
			if err != nil {
				return err
			}
			printRuns(a, runs)
			return nil
		},
	}
	cmd.Flags().StringVarP(&backend, "backend", "b", "", "only list runs of this backend")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs")
	return cmd
}

func printRuns(a *app, runs []store.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(a.out, "no runs recorded")
		return
	}
	rows := [][]string{{"RUN", "BACKEND", "CREATED", "UTTERANCES", "WER", "CER"}}
	for _, r := range runs {
		wer, cer := "-", "-"
		if r.MeanWER.Valid {
			wer = fmt.Sprintf("%.4f", r.MeanWER.Float64)
		}
		if r.MeanCER.Valid {
			cer = fmt.Sprintf("%.4f", r.MeanCER.Float64)
		}
		rows = append(rows, []string{
			r.ID,
			r.Backend,
			r.CreatedAt.Local().Format(time.DateTime),
			fmt.Sprint(r.Utterances),
			wer,
			cer,
		})
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = runewidth.FillRight(cell, widths[i])
		}
		fmt.Fprintln(a.out, strings.TrimRight(strings.Join(cells, "  "), " "))
	}
}
