package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/dcschmid/check-and-download-cover/internal/pipeline"
	"github.com/dcschmid/check-and-download-cover/internal/shared"
	"github.com/urfave/cli/v3"
)

// Engine runs cover resolution over one album catalog.
//
// This abstraction allows for easier testing by mocking the engine in
// command tests.
type Engine interface {
	Run(ctx context.Context, progress chan<- pipeline.ProgressUpdate, catalogPath string) (*pipeline.RunResult, error)
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The engine stays nil until a run is requested so that flag overrides
// can take part in its construction.
type Runner struct {
	config     *shared.Config
	configPath string
	engine     Engine
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Engine     Engine
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		engine:     opts.Engine,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		initCommand, journalCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig reads the config at path, falling back to defaults when the
// file is absent or broken, and overlays credentials from the environment.
func (r *Runner) loadConfig(path string) *shared.Config {
	config := shared.DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		if loaded, err := shared.LoadConfig(path); err == nil {
			config = loaded
		} else {
			r.logger.Warn("failed to load config, using defaults", "path", path, "error", err)
		}
	}
	config.ApplyEnv()
	return config
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
