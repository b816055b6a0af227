// Package harness builds annotated test programs and runs
// them under every available debugger.
//
// For each source it:
//
//  1. Parses the BREAKPOINT annotations.
//  2. Builds the source with optimizations and inlining disabled.
//  3. Renders a script for each debugger and listens on a unix
//     socket for the results the script reports.
//  4. Runs the debugger on the script and tallies a Report.
package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/josharian/debugo/internal/breakpoint"
	"github.com/josharian/debugo/internal/config"
	"github.com/josharian/debugo/internal/debugger"
)

// acceptGrace bounds the wait for a connection once the debugger has exited.
const acceptGrace = time.Second

// ErrNoGoSuffix is returned for sources that are not .go files.
var ErrNoGoSuffix = errors.New("does not have .go suffix")

// Harness holds the environment shared by all test runs.
type Harness struct {
	cfg       *config.Config
	log       *zap.Logger
	out       io.Writer
	verbose   bool
	goTool    string
	goRoot    string
	tempDir   string
	debuggers []debugger.Debugger
	built     int
}

// Option configures a Harness.
type Option func(*Harness)

// WithOutput sets where results are printed. The default is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(h *Harness) { h.out = w }
}

// WithVerbose prints every result, not only failures.
func WithVerbose(v bool) Option {
	return func(h *Harness) { h.verbose = v }
}

// WithDebuggers overrides debugger detection.
func WithDebuggers(ds ...debugger.Debugger) Option {
	return func(h *Harness) { h.debuggers = ds }
}

// New gathers environment info: where the go command and GOROOT are and
// which debuggers are available. Close the Harness to remove its temp dir.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, opts ...Option) (*Harness, error) {
	h := &Harness{cfg: cfg, log: log, out: os.Stdout}
	for _, opt := range opts {
		opt(h)
	}

	goTool := cfg.Go
	if goTool == "" {
		goTool = "go"
	}
	goTool, err := exec.LookPath(goTool)
	if err != nil {
		return nil, err
	}
	h.goTool = goTool

	goRoot := new(bytes.Buffer)
	cmd := exec.CommandContext(ctx, goTool, "env", "GOROOT")
	cmd.Stdout = goRoot
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("go env GOROOT: %w", err)
	}
	h.goRoot = strings.TrimSpace(goRoot.String())

	if h.debuggers == nil {
		h.debuggers, err = debugger.Detect(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
	}

	h.tempDir, err = os.MkdirTemp("", "go-debugger-test")
	if err != nil {
		return nil, err
	}
	log.Debug("environment",
		zap.String("go", h.goTool),
		zap.String("goroot", h.goRoot),
		zap.String("tempdir", h.tempDir),
		zap.Int("debuggers", len(h.debuggers)))
	return h, nil
}

// Debuggers returns the names of the debuggers tests run under.
func (h *Harness) Debuggers() []string {
	names := make([]string, 0, len(h.debuggers))
	for _, d := range h.debuggers {
		names = append(names, d.Name())
	}
	return names
}

// Close removes the temp dir unless the config asks to keep it.
func (h *Harness) Close() error {
	if h.tempDir == "" {
		return nil
	}
	if h.cfg.KeepTemp {
		h.log.Info("keeping temp dir", zap.String("tempdir", h.tempDir))
		return nil
	}
	h.log.Debug("removing temp dir", zap.String("tempdir", h.tempDir))
	return os.RemoveAll(h.tempDir)
}

// Run tests every source under every debugger. Sources without a .go
// suffix are skipped; any other failure to prepare a source stops the run.
func (h *Harness) Run(ctx context.Context, sources []string) ([]Report, error) {
	var reports []Report
	for _, source := range sources {
		reps, err := h.RunSource(ctx, source)
		if errors.Is(err, ErrNoGoSuffix) {
			fmt.Fprintf(h.out, "SKIPPING test %s: %v\n", source, err)
			continue
		}
		if err != nil {
			return reports, err
		}
		reports = append(reports, reps...)
	}
	return reports, nil
}

// RunSource parses and builds source, then tests it under every debugger.
func (h *Harness) RunSource(ctx context.Context, source string) ([]Report, error) {
	if !strings.HasSuffix(source, ".go") {
		return nil, ErrNoGoSuffix
	}
	path, err := filepath.Abs(source)
	if err != nil {
		return nil, err
	}

	h.log.Debug("running test", zap.String("source", source))
	bps, err := breakpoint.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", source, err)
	}

	executable, err := h.build(ctx, path)
	if err != nil {
		return nil, err
	}

	reports := make([]Report, 0, len(h.debuggers))
	for _, d := range h.debuggers {
		rep, err := h.runDebugger(ctx, d, source, bps, executable)
		if err != nil {
			return reports, err
		}
		fmt.Fprintln(h.out, &rep)
		reports = append(reports, rep)
	}
	return reports, nil
}

// build compiles the single file at path into the temp dir.
func (h *Harness) build(ctx context.Context, path string) (string, error) {
	h.built++
	name := strings.TrimSuffix(filepath.Base(path), ".go")
	executable := filepath.Join(h.tempDir, fmt.Sprintf("%s-%d", name, h.built))

	out := new(bytes.Buffer)
	cmd := exec.CommandContext(ctx, h.goTool, "build", "-o", executable, "-gcflags", h.cfg.Gcflags, filepath.Base(path))
	cmd.Dir = filepath.Dir(path)
	cmd.Stdout = out
	cmd.Stderr = out
	h.log.Debug("building", zap.Stringer("cmd", cmd))
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("build %s: %w\n%s", path, err, out.Bytes())
	}
	return executable, nil
}

// runDebugger runs one debugger over one built executable.
// Failures of the debugger itself are recorded in the report;
// the returned error is reserved for the harness's own failures.
func (h *Harness) runDebugger(ctx context.Context, d debugger.Debugger, source string, bps []breakpoint.Breakpoint, executable string) (Report, error) {
	rep := NewReport(source, d.Name(), bps)
	if rep.Expected == 0 {
		h.log.Debug("no tests", zap.String("debugger", d.Name()), zap.String("source", source))
		return rep, nil
	}

	sock := filepath.Join(h.tempDir, "status."+d.Name()+".sock")
	_ = os.Remove(sock)
	ln, err := net.ListenUnix("unix", &net.UnixAddr{Name: sock, Net: "unix"})
	if err != nil {
		return rep, err
	}
	defer ln.Close()

	scriptPath := filepath.Join(h.tempDir, "script."+d.Name())
	dot := debugger.ScriptContext{GoRoot: h.goRoot, Sock: sock, Breakpoints: bps, Executable: executable}
	if err := h.writeScript(d, scriptPath, dot); err != nil {
		return rep, fmt.Errorf("write %s script: %w", d.Name(), err)
	}

	if h.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.Timeout)
		defer cancel()
	}

	// results is only touched by the reader goroutine until Wait returns.
	var results []TestResult
	var connected bool
	var runErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		conn, err := ln.Accept()
		if err != nil {
			// Accept times out shortly after the debugger exits.
			return nil
		}
		defer conn.Close()
		connected = true
		return collect(conn, func(r TestResult) {
			results = append(results, r)
			h.emit(d, r)
		})
	})
	g.Go(func() error {
		runErr = d.Run(gctx, executable, scriptPath)
		// A script that connected and exited may still be queued.
		return ln.SetDeadline(time.Now().Add(acceptGrace))
	})
	if err := g.Wait(); err != nil {
		return rep, fmt.Errorf("%s: %w", d.Name(), err)
	}

	for _, r := range results {
		rep.Add(r)
	}
	if !connected {
		h.addError(&rep, d, "script never connected to the results socket")
	}
	if runErr != nil {
		h.addError(&rep, d, runErr.Error())
	}
	if m := rep.Missing(); m > 0 {
		h.addError(&rep, d, fmt.Sprintf("%d of %d tests never ran; is every breakpoint reachable?", m, rep.Expected))
	}
	return rep, nil
}

func (h *Harness) addError(rep *Report, d debugger.Debugger, msg string) {
	r := TestResult{Status: StatusError, File: rep.Source, Msg: msg}
	rep.Add(r)
	h.emit(d, r)
}

func (h *Harness) emit(d debugger.Debugger, r TestResult) {
	h.log.Debug("result",
		zap.String("debugger", d.Name()),
		zap.String("status", r.Status),
		zap.String("file", r.File),
		zap.Int("line", r.Line),
		zap.String("msg", r.Msg))
	switch {
	case r.Status == StatusFail || r.Status == StatusError:
		fmt.Fprintf(h.out, "[%s] %v\n", d.Name(), r)
	case h.verbose && r.Status != StatusRunning:
		fmt.Fprintf(h.out, "[%s] %v\n", d.Name(), r)
	}
}

func (h *Harness) writeScript(d debugger.Debugger, scriptPath string, dot debugger.ScriptContext) error {
	script := new(bytes.Buffer)
	if err := d.WriteScript(script, dot); err != nil {
		return err
	}
	h.log.Debug("script", zap.String("debugger", d.Name()), zap.String("path", scriptPath), zap.String("script", script.String()))
	return os.WriteFile(scriptPath, script.Bytes(), 0644)
}
