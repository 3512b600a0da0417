// Command sourcer runs sourcing jobs from the command line: it reads a
// JobSpec (or an array of them) as JSON from a file or stdin, runs the
// pipeline in-process, and prints the JobResult JSON to stdout.
//
// Exit codes: 0 success, 2 validation error, 3 engine unavailable.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fairyhunter13/ai-candidate-sourcer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-candidate-sourcer/internal/app"
	"github.com/fairyhunter13/ai-candidate-sourcer/internal/config"
	"github.com/fairyhunter13/ai-candidate-sourcer/internal/domain"
)

const (
	exitOK         = 0
	exitValidation = 2
	exitEngine     = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		file   = flag.String("f", "-", "path to a JobSpec JSON file, or - for stdin")
		pretty = flag.Bool("pretty", false, "indent the output JSON")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return exitEngine
	}
	slog.SetDefault(observability.SetupLogger(cfg))

	raw, err := readInput(*file)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read input:", err)
		return exitValidation
	}

	engine, err := app.BuildEngine(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "engine:", err)
		return exitEngine
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out, code := execute(ctx, engine, raw)
	if code != exitOK {
		return code
	}

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(out); err != nil {
		fmt.Fprintln(os.Stderr, "encode output:", err)
		return exitEngine
	}
	return exitOK
}

// execute runs either a single job or a batch depending on the input shape.
func execute(ctx context.Context, engine *app.Engine, raw []byte) (any, int) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		fmt.Fprintln(os.Stderr, "empty input")
		return nil, exitValidation
	}

	if trimmed[0] == '[' {
		var specs []domain.JobSpec
		if err := json.Unmarshal(trimmed, &specs); err != nil {
			fmt.Fprintln(os.Stderr, "parse specs:", err)
			return nil, exitValidation
		}
		for i := range specs {
			applyDefaults(&specs[i])
		}
		return engine.Orchestrator.ProcessBatch(ctx, specs), exitOK
	}

	var spec domain.JobSpec
	if err := json.Unmarshal(trimmed, &spec); err != nil {
		fmt.Fprintln(os.Stderr, "parse spec:", err)
		return nil, exitValidation
	}
	applyDefaults(&spec)

	res, err := engine.Orchestrator.SourceCandidates(ctx, spec)
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		fmt.Fprintln(os.Stderr, "invalid spec:", err)
		return nil, exitValidation
	case errors.Is(err, domain.ErrEngineBusy):
		fmt.Fprintln(os.Stderr, "engine busy:", err)
		return nil, exitEngine
	case err != nil:
		fmt.Fprintln(os.Stderr, "job failed:", err)
		return nil, exitEngine
	}
	return res, exitOK
}

func applyDefaults(spec *domain.JobSpec) {
	if spec.MaxCandidates == 0 {
		spec.MaxCandidates = 10
	}
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	// #nosec G304 -- path is operator-provided
	return os.ReadFile(path)
}
