package debugger

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"

	"go.uber.org/zap"

	"github.com/josharian/debugo/internal/config"
)

var gdbScript = newTemplate("script.gdb", `
set pagination off
set confirm off
add-auto-load-safe-path {{.GoRoot}}/src/runtime/runtime-gdb.py

python
{{template "prelude" .Sock}}
def test(command, want, filename, lineno):
	send_result("RUNNING", command, filename, lineno)
	try:
		out = gdb.execute(command, False, True)
	except gdb.error as e:
		send_result("ERROR", "command " + command + " failed: " + str(e), filename, lineno)
		return
	check(command, want, out, filename, lineno)
end

{{range $bp := .Breakpoints}}
{{with $bp.TestsFor "gdb"}}
tbreak {{$bp.Filename}}:{{$bp.Line}}
commands
silent
{{range $test := .}}
python test({{$test.Command | printf "%q"}}, {{$test.Want | joinn | printf "%q"}}, {{$bp.Filename | printf "%q"}}, {{$test.Line}})
{{end}}
continue
end
{{end}}
{{end}}
run
`)

// Gdb is all gdb-related context.
type Gdb struct {
	Path string // path to gdb
	log  *zap.Logger
}

// NewGdb locates gdb. A non-nil error means gdb cannot be used.
func NewGdb(cfg *config.Config, log *zap.Logger) (*Gdb, error) {
	path, err := lookPath(cfg.Gdb, "gdb")
	if err != nil {
		return nil, err
	}
	return &Gdb{Path: path, log: log}, nil
}

func (g *Gdb) WriteScript(w io.Writer, dot ScriptContext) error {
	return gdbScript.Execute(w, dot)
}

func (g *Gdb) Run(ctx context.Context, executable string, scriptPath string) error {
	cmd := exec.CommandContext(ctx, g.Path, executable,
		"--batch",
		"--return-child-result",
		"--command", scriptPath,
		"--nx", // ignore .gdbinit
		"--quiet",
	)
	out := new(bytes.Buffer)
	cmd.Stdout = out
	cmd.Stderr = out
	g.log.Debug("running debugger", zap.String("debugger", g.Name()), zap.Stringer("cmd", cmd))
	err := cmd.Run()
	g.log.Debug("debugger output", zap.String("debugger", g.Name()), zap.String("output", out.String()))
	if err != nil {
		return fmt.Errorf("gdb %s: %w", executable, err)
	}
	return nil
}

func (g *Gdb) Name() string { return "gdb" }
