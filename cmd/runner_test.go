package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dcschmid/check-and-download-cover/internal/pipeline"
	"github.com/dcschmid/check-and-download-cover/internal/repositories"
	"github.com/dcschmid/check-and-download-cover/internal/shared"
	tu "github.com/dcschmid/check-and-download-cover/internal/testing"
	"github.com/urfave/cli/v3"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			engine := &stubEngine{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "config.toml",
				Engine:     engine,
				Logger:     logger,
				Output:     output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "config.toml" {
				t.Error("expected configPath to be set")
			}
			if runner.engine != engine {
				t.Error("expected engine to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Config: nil,
			})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Logger: nil,
			})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Output: nil,
			})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil engine leaves it unset", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.engine != nil {
				t.Error("expected engine to stay nil until a run is requested")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			data := map[string]string{"key": "value"}
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
			}
		}
	})
}

func TestResolveCommand(t *testing.T) {
	t.Run("runs the engine against the catalog argument", func(t *testing.T) {
		output := &bytes.Buffer{}
		engine := &stubEngine{result: sampleRunResult()}
		runner := newTestRunner(engine, output)
		app := newTestApp(runner)

		err := app.Run(context.Background(), []string{"check-and-download-cover", "rock.json"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if engine.catalogPath != "rock.json" {
			t.Errorf("expected engine to receive rock.json, got %q", engine.catalogPath)
		}

		out := output.String()
		if !strings.Contains(out, "Cover Run Complete") {
			t.Errorf("expected summary header, got %q", out)
		}
		if !strings.Contains(out, "✓ Resolved: 1") {
			t.Errorf("expected resolved counter, got %q", out)
		}
		if !strings.Contains(out, "deezer: 1") {
			t.Errorf("expected provider counter, got %q", out)
		}
		if !strings.Contains(out, "Obscure Band - Lost Tapes (placeholder)") {
			t.Errorf("expected placeholder listing, got %q", out)
		}
	})

	t.Run("echoes progress updates before the summary", func(t *testing.T) {
		output := &bytes.Buffer{}
		engine := &stubEngine{
			result: sampleRunResult(),
			updates: []pipeline.ProgressUpdate{
				{Phase: pipeline.LoadCatalog, Total: 2, Message: "Loaded 2 albums from rock.json"},
				{Phase: pipeline.ResolveCover, Step: 1, Total: 2, Message: "[1/2] Pink Floyd - The Wall"},
			},
		}
		runner := newTestRunner(engine, output)
		app := newTestApp(runner)

		if err := app.Run(context.Background(), []string{"check-and-download-cover", "rock.json"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		out := output.String()
		loaded := strings.Index(out, "Loaded 2 albums from rock.json")
		resolving := strings.Index(out, "[1/2] Pink Floyd - The Wall")
		summary := strings.Index(out, "Cover Run Complete")
		if loaded == -1 || resolving == -1 || summary == -1 {
			t.Fatalf("expected progress lines and summary, got %q", out)
		}
		if loaded > resolving || resolving > summary {
			t.Errorf("expected progress lines before the summary, got %q", out)
		}
	})

	t.Run("missing catalog argument is an error", func(t *testing.T) {
		runner := newTestRunner(&stubEngine{}, &bytes.Buffer{})
		app := newTestApp(runner)

		err := app.Run(context.Background(), []string{"check-and-download-cover"})
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("engine failure aborts the command", func(t *testing.T) {
		output := &bytes.Buffer{}
		engine := &stubEngine{err: errors.New("failed to read catalog")}
		runner := newTestRunner(engine, output)
		app := newTestApp(runner)

		err := app.Run(context.Background(), []string{"check-and-download-cover", "rock.json"})
		if err == nil || !strings.Contains(err.Error(), "failed to read catalog") {
			t.Fatalf("expected catalog error, got %v", err)
		}

		if strings.Contains(output.String(), "Cover Run Complete") {
			t.Error("expected no summary after a failed run")
		}
	})

	t.Run("report flag writes the report file", func(t *testing.T) {
		tmpDir := t.TempDir()
		reportPath := filepath.Join(tmpDir, "covers.csv")

		output := &bytes.Buffer{}
		runner := newTestRunner(&stubEngine{result: sampleRunResult()}, output)
		app := newTestApp(runner)

		err := app.Run(context.Background(), []string{"check-and-download-cover", "--report", reportPath, "rock.json"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, reportPath)
		content := tu.MustReadFile(t, reportPath)
		if !strings.Contains(content, "Category,Artist,Album,Status,Provider,CoverPath,Detail") {
			t.Errorf("expected CSV headers, got %q", content)
		}
		if !strings.Contains(content, "rock,Pink Floyd,The Wall,resolved,deezer") {
			t.Errorf("expected resolved row, got %q", content)
		}
		if !strings.Contains(output.String(), "Report written to "+reportPath) {
			t.Errorf("expected report notice, got %q", output.String())
		}
	})
}

func TestInitCommand(t *testing.T) {
	t.Run("creates the config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		output := &bytes.Buffer{}
		runner := newTestRunner(nil, output)
		app := newTestApp(runner)

		err := app.Run(context.Background(), []string{"check-and-download-cover", "init", "-c", configPath})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, configPath)
		out := output.String()
		if !strings.Contains(out, "Config written to "+configPath) {
			t.Errorf("expected config notice, got %q", out)
		}
		if !strings.Contains(out, "Journal disabled") {
			t.Errorf("expected journal note for the default config, got %q", out)
		}
	})

	t.Run("existing config is left untouched", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")
		custom := "[resolver]\ncovers_dir = \"artwork\"\n"
		if err := os.WriteFile(configPath, []byte(custom), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		output := &bytes.Buffer{}
		runner := newTestRunner(nil, output)
		app := newTestApp(runner)

		err := app.Run(context.Background(), []string{"check-and-download-cover", "init", "-c", configPath})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if got := tu.MustReadFile(t, configPath); got != custom {
			t.Errorf("expected config to be untouched, got %q", got)
		}
		if !strings.Contains(output.String(), "already exists") {
			t.Errorf("expected existing-config notice, got %q", output.String())
		}
	})

	t.Run("prepares the journal database named by the config", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")
		journalPath := filepath.Join(tmpDir, "covers.db")
		content := fmt.Sprintf("[journal]\npath = %q\n", journalPath)
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		output := &bytes.Buffer{}
		runner := newTestRunner(nil, output)
		app := newTestApp(runner)

		err := app.Run(context.Background(), []string{"check-and-download-cover", "init", "-c", configPath})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, journalPath)
		if !strings.Contains(output.String(), "Journal database ready") {
			t.Errorf("expected journal notice, got %q", output.String())
		}
	})
}

func TestJournalCommand(t *testing.T) {
	base := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)

	seed := func(t *testing.T, path string, rows []repositories.Resolution) {
		t.Helper()

		db, err := shared.NewDatabase(path)
		if err != nil {
			t.Fatalf("failed to create journal database: %v", err)
		}
		defer db.Close()

		repo, err := repositories.NewResolutionRepository(db)
		if err != nil {
			t.Fatalf("failed to create repository: %v", err)
		}
		for i := range rows {
			if err := repo.Record(&rows[i]); err != nil {
				t.Fatalf("failed to seed row: %v", err)
			}
		}
	}

	t.Run("lists recent rows newest first", func(t *testing.T) {
		tmpDir := t.TempDir()
		journalPath := filepath.Join(tmpDir, "covers.db")
		seed(t, journalPath, []repositories.Resolution{
			{RunID: "run-a", Category: "rock", Artist: "Pink Floyd", Album: "The Wall", Status: repositories.StatusResolved, Provider: "spotify", CreatedAt: base},
			{RunID: "run-a", Category: "rock", Artist: "Nirvana", Album: "Nevermind", Status: repositories.StatusPlaceholder, CreatedAt: base.Add(time.Minute)},
		})

		output := &bytes.Buffer{}
		runner := newTestRunner(nil, output)
		app := newTestApp(runner)

		err := app.Run(context.Background(), []string{"check-and-download-cover", "journal", "--journal", journalPath})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		out := output.String()
		newest := strings.Index(out, "Nirvana - Nevermind")
		oldest := strings.Index(out, "Pink Floyd - The Wall (spotify) [resolved]")
		if newest == -1 || oldest == -1 {
			t.Fatalf("expected both rows, got %q", out)
		}
		if newest > oldest {
			t.Errorf("expected newest row first, got %q", out)
		}
	})

	t.Run("limit caps the listing", func(t *testing.T) {
		tmpDir := t.TempDir()
		journalPath := filepath.Join(tmpDir, "covers.db")
		seed(t, journalPath, []repositories.Resolution{
			{RunID: "run-a", Category: "rock", Artist: "Older", Album: "First", Status: repositories.StatusResolved, Provider: "deezer", CreatedAt: base},
			{RunID: "run-a", Category: "rock", Artist: "Newer", Album: "Second", Status: repositories.StatusResolved, Provider: "deezer", CreatedAt: base.Add(time.Minute)},
		})

		output := &bytes.Buffer{}
		runner := newTestRunner(nil, output)
		app := newTestApp(runner)

		err := app.Run(context.Background(), []string{"check-and-download-cover", "journal", "--journal", journalPath, "--limit", "1"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		out := output.String()
		if !strings.Contains(out, "Newer - Second") {
			t.Errorf("expected the newest row, got %q", out)
		}
		if strings.Contains(out, "Older - First") {
			t.Errorf("expected older rows to be cut off, got %q", out)
		}
	})

	t.Run("run flag filters to one run", func(t *testing.T) {
		tmpDir := t.TempDir()
		journalPath := filepath.Join(tmpDir, "covers.db")
		seed(t, journalPath, []repositories.Resolution{
			{RunID: "run-a", Category: "rock", Artist: "Pink Floyd", Album: "The Wall", Status: repositories.StatusResolved, Provider: "spotify", CreatedAt: base},
			{RunID: "run-b", Category: "jazz", Artist: "Miles Davis", Album: "Kind of Blue", Status: repositories.StatusResolved, Provider: "deezer", CreatedAt: base.Add(time.Minute)},
		})

		output := &bytes.Buffer{}
		runner := newTestRunner(nil, output)
		app := newTestApp(runner)

		err := app.Run(context.Background(), []string{"check-and-download-cover", "journal", "--journal", journalPath, "--run", "run-b"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		out := output.String()
		if !strings.Contains(out, "Miles Davis - Kind of Blue") {
			t.Errorf("expected run-b row, got %q", out)
		}
		if strings.Contains(out, "Pink Floyd") {
			t.Errorf("expected run-a rows to be filtered out, got %q", out)
		}
	})

	t.Run("json flag emits rows as JSON", func(t *testing.T) {
		tmpDir := t.TempDir()
		journalPath := filepath.Join(tmpDir, "covers.db")
		seed(t, journalPath, []repositories.Resolution{
			{RunID: "run-a", Category: "rock", Artist: "Pink Floyd", Album: "The Wall", Status: repositories.StatusResolved, Provider: "spotify", CreatedAt: base},
		})

		output := &bytes.Buffer{}
		runner := newTestRunner(nil, output)
		app := newTestApp(runner)

		err := app.Run(context.Background(), []string{"check-and-download-cover", "journal", "--journal", journalPath, "--json"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var rows []repositories.Resolution
		if err := json.Unmarshal(output.Bytes(), &rows); err != nil {
			t.Fatalf("expected JSON output, got %v: %q", err, output.String())
		}
		if len(rows) != 1 || rows[0].Artist != "Pink Floyd" {
			t.Errorf("expected the seeded row, got %+v", rows)
		}
	})

	t.Run("without a journal database is an error", func(t *testing.T) {
		runner := newTestRunner(nil, &bytes.Buffer{})
		app := newTestApp(runner)

		err := app.Run(context.Background(), []string{"check-and-download-cover", "journal"})
		if !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("empty journal prints a note", func(t *testing.T) {
		tmpDir := t.TempDir()
		journalPath := filepath.Join(tmpDir, "covers.db")

		output := &bytes.Buffer{}
		runner := newTestRunner(nil, output)
		app := newTestApp(runner)

		err := app.Run(context.Background(), []string{"check-and-download-cover", "journal", "--journal", journalPath})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !strings.Contains(output.String(), "Journal is empty") {
			t.Errorf("expected empty-journal note, got %q", output.String())
		}
	})
}

func TestBuildEngine(t *testing.T) {
	t.Run("without a journal", func(t *testing.T) {
		runner := newTestRunner(nil, &bytes.Buffer{})

		engine, cleanup := runner.buildEngine(runner.config.Resolver, "")
		defer cleanup()

		if engine == nil {
			t.Fatal("expected an engine")
		}
	})

	t.Run("with a journal path creates the database", func(t *testing.T) {
		tmpDir := t.TempDir()
		journalPath := filepath.Join(tmpDir, "covers.db")
		runner := newTestRunner(nil, &bytes.Buffer{})

		engine, cleanup := runner.buildEngine(runner.config.Resolver, journalPath)
		if engine == nil {
			t.Fatal("expected an engine")
		}
		cleanup()

		tu.AssertFileExists(t, journalPath)
	})
}

// newTestRunner wires a runner to a buffer and a quiet logger.
func newTestRunner(engine Engine, output io.Writer) *Runner {
	return NewRunner(RunnerOpts{
		Engine: engine,
		Logger: shared.NewLogger(io.Discard),
		Output: output,
	})
}

// newTestApp builds the same command tree main assembles.
func newTestApp(runner *Runner) *cli.Command {
	return &cli.Command{
		Name:  "check-and-download-cover",
		Flags: resolveFlags(),
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "catalog"},
		},
		Action:   runner.Resolve,
		Commands: runner.register(),
	}
}

func sampleRunResult() *pipeline.RunResult {
	return &pipeline.RunResult{
		RunID:        "run1234",
		CatalogPath:  "rock.json",
		Category:     "rock",
		Total:        2,
		Resolved:     1,
		Placeholders: 1,
		PerProvider:  map[string]int{"deezer": 1},
		Outcomes: []repositories.Resolution{
			{Category: "rock", Artist: "Pink Floyd", Album: "The Wall", Status: repositories.StatusResolved, Provider: "deezer", CoverPath: "bandcover/rock/pink-floyd_the-wall.jpg"},
			{Category: "rock", Artist: "Obscure Band", Album: "Lost Tapes", Status: repositories.StatusPlaceholder, Detail: "no provider had a verified cover"},
		},
	}
}

// stubEngine returns canned results and records what it was asked to run.
type stubEngine struct {
	result      *pipeline.RunResult
	err         error
	updates     []pipeline.ProgressUpdate
	catalogPath string
}

func (s *stubEngine) Run(ctx context.Context, progress chan<- pipeline.ProgressUpdate, catalogPath string) (*pipeline.RunResult, error) {
	s.catalogPath = catalogPath
	for _, update := range s.updates {
		progress <- update
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}
