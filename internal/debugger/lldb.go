package debugger

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/josharian/debugo/internal/config"
)

var lldbScript = newTemplate("script.lldb", `
import os
import sys

import lldb

{{template "prelude" .Sock}}
debugger = lldb.SBDebugger.Create()
debugger.SkipLLDBInitFiles(True)
debugger.SetAsync(False)  # pause script execution when running lldb commands

target = debugger.CreateTargetWithFileAndArch({{.Executable | printf "%q"}}, lldb.LLDB_ARCH_DEFAULT)

if not target:
	send_result("ERROR", "failed to create target")
	sys.exit(1)

bps = {}
{{range $bp := .Breakpoints}}
{{with $bp.TestsFor "lldb"}}
filename = {{$bp.Filename | printf "%q"}}
lineno = {{$bp.Line}}
bp = target.BreakpointCreateByLocation(filename, lineno)
if bp.GetNumLocations() != 1:
	send_result("ERROR", "failed to resolve breakpoint", filename, lineno)
	sys.exit(1)
bp.SetOneShot(True)
tests = []
{{range $test := .}}
tests.append(({{$test.Command | printf "%q"}}, {{$test.Want | joinn | printf "%q"}}, filename, {{$test.Line}}))
{{end}}
bps[bp.GetID()] = tests
{{end}}
{{end}}

process = target.LaunchSimple(None, None, os.getcwd())

if not process:
	send_result("ERROR", "failed to launch process")
	sys.exit(1)

while True:
	state = process.GetState()
	if state == lldb.eStateExited:
		# process has exited; we're done
		sys.exit(0)

	if state != lldb.eStateStopped:
		send_result("ERROR", "unexpected process state: " + str(state))
		sys.exit(1)

	# find the current breakpoint
	bp_id = None
	for t in process:
		if t.GetStopReason() == lldb.eStopReasonBreakpoint:
			bp_id = t.GetStopReasonDataAtIndex(0)
			break

	if bp_id is None:
		send_result("ERROR", "stopped but not on a breakpoint")
		sys.exit(1)

	tests = bps.get(bp_id)
	if tests is None:
		send_result("ERROR", "stopped at an unrecognized breakpoint")
		sys.exit(1)

	for test in tests:
		cmd, want, filename, lineno = test

		send_result("RUNNING", cmd, filename, lineno)
		ret = lldb.SBCommandReturnObject()
		debugger.GetCommandInterpreter().HandleCommand(cmd, ret)
		if not ret.Succeeded():
			send_result("ERROR", "command " + cmd + " failed: " + ret.GetError().strip(), filename, lineno)
			continue
		check(cmd, want, ret.GetOutput(), filename, lineno)

	process.Continue()
`)

// Lldb is all lldb-related context.
type Lldb struct {
	Path      string // path to lldb
	Python    string // path to python
	PythonMod string // path to the lldb python module
	log       *zap.Logger
}

// NewLldb locates lldb, a python interpreter and lldb's python module.
// A non-nil error means lldb cannot be used.
func NewLldb(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Lldb, error) {
	path, err := lookPath(cfg.Lldb, "lldb")
	if err != nil {
		return nil, err
	}
	python, err := lookPath(cfg.Python, "python3", "python")
	if err != nil {
		return nil, err
	}

	pymod := new(bytes.Buffer)
	cmd := exec.CommandContext(ctx, path, "-P")
	cmd.Stdout = pymod
	log.Debug("locating lldb python module", zap.Stringer("cmd", cmd))
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("lldb -P: %w", err)
	}

	return &Lldb{
		Path:      path,
		Python:    python,
		PythonMod: strings.TrimSpace(pymod.String()),
		log:       log,
	}, nil
}

func (l *Lldb) WriteScript(w io.Writer, dot ScriptContext) error {
	return lldbScript.Execute(w, dot)
}

func (l *Lldb) Run(ctx context.Context, executable string, scriptPath string) error {
	cmd := exec.CommandContext(ctx, l.Python, scriptPath)
	cmd.Env = append(os.Environ(), "PYTHONPATH="+l.pythonPath())
	out := new(bytes.Buffer)
	cmd.Stdout = out
	cmd.Stderr = out
	l.log.Debug("running debugger", zap.String("debugger", l.Name()), zap.Stringer("cmd", cmd))
	err := cmd.Run()
	l.log.Debug("debugger output", zap.String("debugger", l.Name()), zap.String("output", out.String()))
	if err == nil {
		return nil
	}

	// Using non-system-provided Python causes crash on importing lldb
	// due to binary mismatch. The message looks like:
	// Fatal Python error: PyThreadState_Get: no current thread
	if exitErr, ok := err.(*exec.ExitError); ok {
		if ws, ok := exitErr.ProcessState.Sys().(syscall.WaitStatus); ok && ws.Signaled() && ws.Signal() == syscall.SIGABRT {
			l.log.Warn("failed to import the lldb python module; try the system-provided python",
				zap.String("python", l.Python))
		}
	}
	return fmt.Errorf("lldb %s: %w", executable, err)
}

func (l *Lldb) pythonPath() string {
	if p := os.Getenv("PYTHONPATH"); p != "" {
		return l.PythonMod + string(os.PathListSeparator) + p
	}
	return l.PythonMod
}

func (l *Lldb) Name() string { return "lldb" }
