// Package cli is steinlang's diagnostic entrypoint: it loads a serialized
// Program blob, runs it to completion, persists the final state through
// internal/storage, and prints
// the program's output plus a one-line allocator summary. It does not
// parse source text — an external parser producing the Program blob is
// out of scope (spec.md §1) — so this package's job starts where that
// collaborator's ends, the same division funvibe-funxy's pkg/cli/entry.go
// draws between lexer/parser/analyzer and the backend that actually runs
// a program.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/funvibe/steinlang/internal/config"
	"github.com/funvibe/steinlang/internal/evaluator"
	"github.com/funvibe/steinlang/internal/storage"
)

// ansi sequences for the summary line. Kept minimal — funvibe-funxy's own
// term builtins go much further (256-color, truecolor); steinlang's CLI
// only ever needs a single accent color, so colorEnabled below collapses
// straight to on/off rather than reproducing that whole ladder.
const (
	ansiDim   = "\x1b[2m"
	ansiReset = "\x1b[0m"
)

// Result is what Run reports back to main: the program's collected output
// lines and the allocator statistics for the summary line.
type Result struct {
	Output     []string
	StepsTaken int
	LiveBytes  int64
	Threshold  int64
	SessionID  string
	Done       bool
}

// Run decodes the Program blob at path, runs it on a fresh evaluator
// bounded by cfg.MaxStepsPerRequest, persists the final snapshot as a new
// internal/storage session, and returns its output and allocator
// statistics. The
// machine not reaching Done within the budget is reported as a
// *evaluator.StepError (watchdog), not silently swallowed.
func Run(ctx context.Context, path string, cfg config.StorageConfig) (*Result, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cli: read %s: %w", path, err)
	}

	prog, err := storage.DecodeProgram(blob)
	if err != nil {
		return nil, fmt.Errorf("cli: decode program: %w", err)
	}

	arena := evaluator.NewArena(cfg.CompactionThresholdBytes)
	ev := evaluator.New(evaluator.NewEvalContext(prog), arena)

	steps, runErr := ev.RunUpTo(cfg.MaxStepsPerRequest)
	if runErr != nil {
		return nil, fmt.Errorf("cli: run: %w", runErr)
	}

	ec := ev.Context()
	if !ec.Done() {
		return nil, evaluator.NewWatchdogError(
			fmt.Sprintf("%d steps taken, %d allowed", steps, cfg.MaxStepsPerRequest))
	}

	st, err := storage.Open(cfg.SqliteDSN, cfg.CompactionThresholdBytes)
	if err != nil {
		return nil, fmt.Errorf("cli: open storage: %w", err)
	}
	defer st.Close()

	id, err := st.Create(ctx, ec)
	if err != nil {
		return nil, fmt.Errorf("cli: persist snapshot: %w", err)
	}

	return &Result{
		Output:     ec.Output,
		StepsTaken: steps,
		LiveBytes:  arena.LiveBytes(),
		Threshold:  cfg.CompactionThresholdBytes,
		SessionID:  id,
		Done:       true,
	}, nil
}

// Print writes r's output lines followed by a summary line to out. Color
// is applied to the summary line only when out is a terminal, gated on
// isatty.IsTerminal/IsCygwinTerminal exactly as
// internal/evaluator/builtins_term.go gates ANSI output in the teacher.
func Print(out io.Writer, r *Result) {
	for _, line := range r.Output {
		fmt.Fprintln(out, line)
	}

	summary := fmt.Sprintf("[%d steps, %s live / %s threshold, session %s]",
		r.StepsTaken, humanize.Bytes(uint64(r.LiveBytes)), thresholdLabel(r.Threshold), r.SessionID)

	if colorEnabled(out) {
		fmt.Fprintln(out, ansiDim+summary+ansiReset)
	} else {
		fmt.Fprintln(out, summary)
	}
}

func thresholdLabel(threshold int64) string {
	if threshold <= 0 {
		return "disabled"
	}
	return humanize.Bytes(uint64(threshold))
}

func colorEnabled(out io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
