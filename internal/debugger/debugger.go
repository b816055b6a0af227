// Package debugger generates and runs the per-debugger test scripts.
//
// Each debugger gets a script, rendered from a template, that sets the
// breakpoints, runs the commands when they are hit, and reports every
// outcome as one JSON object per line on a unix socket. Listening on a
// socket proved much easier and more robust than parsing the output of
// gdb or lldb directly.
package debugger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/josharian/debugo/internal/breakpoint"
	"github.com/josharian/debugo/internal/config"
)

// ErrNoDebuggers is returned by Detect when neither gdb nor lldb is usable.
var ErrNoDebuggers = errors.New("no debuggers available")

// Debugger is the interface shared between Gdb and Lldb.
type Debugger interface {
	Name() string
	WriteScript(w io.Writer, dot ScriptContext) error
	Run(ctx context.Context, executable string, scriptPath string) error
}

// ScriptContext is all the information needed to
// generate a debugger test script from a template.
type ScriptContext struct {
	GoRoot      string
	Sock        string // socket path for sending replies to
	Breakpoints []breakpoint.Breakpoint
	Executable  string
}

// Detect returns the debuggers that are installed and not skipped by cfg.
// Debuggers that fail to initialize are logged and left out.
func Detect(ctx context.Context, cfg *config.Config, log *zap.Logger) ([]Debugger, error) {
	var debuggers []Debugger
	if !cfg.Skipped("gdb") {
		if gdb, err := NewGdb(cfg, log); err != nil {
			log.Warn("skipping debugger", zap.String("debugger", "gdb"), zap.Error(err))
		} else {
			debuggers = append(debuggers, gdb)
		}
	}
	if !cfg.Skipped("lldb") {
		if lldb, err := NewLldb(ctx, cfg, log); err != nil {
			log.Warn("skipping debugger", zap.String("debugger", "lldb"), zap.Error(err))
		} else {
			debuggers = append(debuggers, lldb)
		}
	}
	if len(debuggers) == 0 {
		return nil, ErrNoDebuggers
	}
	return debuggers, nil
}

// lookPath resolves configured if set, else the first of names found in PATH.
func lookPath(configured string, names ...string) (string, error) {
	if configured != "" {
		return exec.LookPath(configured)
	}
	var firstErr error
	for _, name := range names {
		path, err := exec.LookPath(name)
		if err == nil {
			return path, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return "", firstErr
}

// pythonPrelude is shared by both scripts. It expects
// the socket path as its dot.
const pythonPrelude = `{{define "prelude"}}import json
import re
import socket

sock = socket.socket(socket.AF_UNIX, socket.SOCK_STREAM)
sock.connect({{. | printf "%q"}})

def send_result(status, msg=None, filename=None, lineno=None):
	res = {"status": status}
	if msg is not None:
		res["msg"] = str(msg)
	if filename is not None:
		res["file"] = filename
	if lineno is not None:
		res["line"] = lineno
	dump = json.dumps(res) + "\n"
	enc = dump.encode('ascii')
	sock.sendall(enc)

def check(command, want, out, filename, lineno):
	try:
		match = re.match("^" + want + "$", out)
	except re.error as e:
		send_result("ERROR", "{command}: bad regex {want!r}: {e}".format(**locals()), filename, lineno)
		return
	if match is None:
		msg = "{command}: want regex {want!r} have {out!r}".format(**locals())
		send_result("FAIL", msg, filename, lineno)
	else:
		send_result("PASS", None, filename, lineno)
{{end}}`

var funcMap = template.FuncMap{
	"joinn": func(v interface{}) (string, error) {
		slice, ok := v.([]string)
		if !ok {
			return "", fmt.Errorf("expected []string, got %v (%T)", v, v)
		}
		return strings.Join(slice, "\n"), nil
	},
}

func newTemplate(name, text string) *template.Template {
	t := template.Must(template.New(name).Funcs(funcMap).Parse(pythonPrelude))
	return template.Must(t.Parse(text))
}
