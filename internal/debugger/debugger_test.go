package debugger

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/josharian/debugo/internal/breakpoint"
	"github.com/josharian/debugo/internal/config"
)

const fixture = "../../test/generics/generics.go"

func scriptContext(t *testing.T) ScriptContext {
	t.Helper()
	bps, err := breakpoint.Parse(fixture)
	require.NoError(t, err)
	return ScriptContext{
		GoRoot:      "/usr/local/go",
		Sock:        "/tmp/debugo/status.sock",
		Breakpoints: bps,
		Executable:  "/tmp/debugo/generics",
	}
}

func TestGdbScript(t *testing.T) {
	dot := scriptContext(t)
	g := &Gdb{Path: "gdb", log: zap.NewNop()}

	var buf bytes.Buffer
	require.NoError(t, g.WriteScript(&buf, dot))
	script := buf.String()

	assert.Contains(t, script, "add-auto-load-safe-path /usr/local/go/src/runtime/runtime-gdb.py")
	assert.Contains(t, script, `sock.connect("/tmp/debugo/status.sock")`)
	assert.Contains(t, script, "tbreak "+fixture+":46\ncommands\nsilent")
	assert.Contains(t, script, `python test("print a", "\\$[0-9]+ = 23", "`+fixture+`", 47)`)
	assert.Contains(t, script, `python test("whatis e", "type = main\\.GenericStruct\\[uint32\\]", "`+fixture+`", 63)`)
	assert.Equal(t, breakpoint.Count(dot.Breakpoints, "gdb"), strings.Count(script, "python test("))
	assert.NotContains(t, script, "frame variable", "lldb commands leaked into the gdb script")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(script), "run"))
}

func TestScriptsReportBadRegex(t *testing.T) {
	dot := scriptContext(t)
	for _, d := range []Debugger{&Gdb{log: zap.NewNop()}, &Lldb{log: zap.NewNop()}} {
		var buf bytes.Buffer
		require.NoError(t, d.WriteScript(&buf, dot))
		script := buf.String()
		assert.Contains(t, script, "except re.error as e:", d.Name())
		assert.Contains(t, script, `send_result("ERROR", "{command}: bad regex`, d.Name())
	}
}

func TestLldbScript(t *testing.T) {
	dot := scriptContext(t)
	l := &Lldb{Path: "lldb", Python: "python3", log: zap.NewNop()}

	var buf bytes.Buffer
	require.NoError(t, l.WriteScript(&buf, dot))
	script := buf.String()

	assert.Contains(t, script, `CreateTargetWithFileAndArch("/tmp/debugo/generics", lldb.LLDB_ARCH_DEFAULT)`)
	assert.Contains(t, script, "filename = \""+fixture+"\"\nlineno = 46\n")
	assert.Contains(t, script, `tests.append(("frame variable a", "\\(uint32\\) a = 23", filename, 76))`)
	assert.Equal(t, breakpoint.Count(dot.Breakpoints, "lldb"), strings.Count(script, "tests.append("))
	assert.NotContains(t, script, "whatis")
}

func TestScriptSkipsBreakpointsWithoutTests(t *testing.T) {
	dot := ScriptContext{
		Sock: "/tmp/s",
		Breakpoints: []breakpoint.Breakpoint{
			{Filename: "x.go", Line: 3, Tests: []breakpoint.Test{
				{Line: 4, Debugger: "lldb", Command: "frame variable", Want: []string{"a", "b"}},
			}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, (&Gdb{log: zap.NewNop()}).WriteScript(&buf, dot))
	assert.NotContains(t, buf.String(), "tbreak")

	buf.Reset()
	require.NoError(t, (&Lldb{log: zap.NewNop()}).WriteScript(&buf, dot))
	assert.Contains(t, buf.String(), `tests.append(("frame variable", "a\nb", filename, 4))`)
}

func TestJoinn(t *testing.T) {
	joinn := funcMap["joinn"].(func(interface{}) (string, error))

	s, err := joinn([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "a\nb", s)

	_, err = joinn(3)
	assert.ErrorContains(t, err, "expected []string")
}

func TestLookPath(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "fakegdb")
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\n"), 0755))

	path, err := lookPath(exe, "gdb")
	require.NoError(t, err)
	assert.Equal(t, exe, path)

	_, err = lookPath(filepath.Join(dir, "missing"), "gdb")
	assert.Error(t, err)

	_, err = lookPath("", "debugo-no-such-tool", "debugo-no-such-tool-either")
	assert.Error(t, err)
}

func TestDetectNothing(t *testing.T) {
	cfg := config.Default()
	cfg.Skip = []string{"gdb", "lldb"}
	_, err := Detect(context.Background(), cfg, zap.NewNop())
	assert.ErrorIs(t, err, ErrNoDebuggers)
}

func TestDetectConfiguredGdb(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "gdb")
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\n"), 0755))

	cfg := config.Default()
	cfg.Gdb = exe
	cfg.Skip = []string{"lldb"}
	debuggers, err := Detect(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, debuggers, 1)
	assert.Equal(t, "gdb", debuggers[0].Name())
	assert.Equal(t, exe, debuggers[0].(*Gdb).Path)
}
