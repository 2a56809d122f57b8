package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/maastricht-university/asr-eval/commands"
	"github.com/maastricht-university/asr-eval/evaluation"
)

// Exit codes.
const (
	exitEvaluationFailed = 1 // an aggregation group was empty
	exitError            = 2 // configuration, input or runtime error
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "asreval:", err)

		var empty *evaluation.EmptyGroupError
		if errors.As(err, &empty) {
			os.Exit(exitEvaluationFailed)
		}
		os.Exit(exitError)
	}
}
