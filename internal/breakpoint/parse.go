// Package breakpoint extracts debugger tests from annotated Go sources.
//
// A test is a comment group whose first line comment is "// BREAKPOINT".
// The remaining line comments alternate between commands, prefixed with
// the debugger that should run them, and the regular expressions the
// reply must match:
//
//	// BREAKPOINT
//	// (gdb) print i
//	// \$[0-9]+ = 5
//	// (lldb) frame variable i
//	// \(int\) i = 5
//
// A command may be followed by several regex lines; they are matched
// against the output joined with newlines. /* */ comments are ignored,
// so wrapping a BREAKPOINT block in one disables it.
package breakpoint

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
)

const marker = "BREAKPOINT"

// Debuggers lists the debugger names a command may be prefixed with.
var Debuggers = []string{"gdb", "lldb"}

// Breakpoint is a location in a source file plus the tests
// to run when execution stops there. Breakpoints fire once.
type Breakpoint struct {
	Filename string
	Line     int
	Tests    []Test
}

// Test is a single debugger command and its expected reply.
type Test struct {
	Line     int    // line of the command comment
	Debugger string // "gdb" or "lldb"
	Command  string
	Want     []string // regular expressions, one per line of output
}

// TestsFor returns the tests at bp that are meant for debugger.
func (bp Breakpoint) TestsFor(debugger string) []Test {
	var tests []Test
	for _, t := range bp.Tests {
		if t.Debugger == debugger {
			tests = append(tests, t)
		}
	}
	return tests
}

// Count returns the number of tests across bps meant for debugger.
func Count(bps []Breakpoint, debugger string) int {
	n := 0
	for _, bp := range bps {
		n += len(bp.TestsFor(debugger))
	}
	return n
}

// ParseError reports a malformed BREAKPOINT block.
type ParseError struct {
	Pos token.Position
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d %s", e.Pos.Filename, e.Pos.Line, e.Msg)
}

// Parse reads filename and returns its breakpoints in source order.
func Parse(filename string) ([]Breakpoint, error) {
	return ParseSource(filename, nil)
}

// ParseSource is like Parse but reads the source from src when it is non-nil.
// src follows the rules of go/parser.ParseFile.
func ParseSource(filename string, src any) ([]Breakpoint, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, err
	}

	var bps []Breakpoint
	for _, group := range f.Comments {
		bp, ok, err := parseGroup(fset, filename, group)
		if err != nil {
			return nil, err
		}
		if ok {
			bps = append(bps, bp)
		}
	}
	return bps, nil
}

func parseGroup(fset *token.FileSet, filename string, group *ast.CommentGroup) (Breakpoint, bool, error) {
	var lines []*ast.Comment
	for _, c := range group.List {
		if strings.HasPrefix(c.Text, "//") {
			lines = append(lines, c)
		}
	}
	if len(lines) == 0 || commentText(lines[0]) != marker {
		return Breakpoint{}, false, nil
	}

	bp := Breakpoint{Filename: filename, Line: fset.Position(lines[0].Slash).Line}
	errorf := func(c *ast.Comment, format string, args ...any) error {
		return &ParseError{Pos: fset.Position(c.Slash), Msg: fmt.Sprintf(format, args...)}
	}

	var cur *Test
	var curComment *ast.Comment
	flush := func() error {
		if cur == nil {
			return nil
		}
		if len(cur.Want) == 0 {
			return errorf(curComment, "command %q has no expected output", cur.Command)
		}
		bp.Tests = append(bp.Tests, *cur)
		cur = nil
		return nil
	}

	for _, c := range lines[1:] {
		text := commentText(c)
		if name, command, ok := splitCommand(text); ok {
			if !knownDebugger(name) {
				return bp, false, errorf(c, "unknown debugger %q", name)
			}
			if err := flush(); err != nil {
				return bp, false, err
			}
			cur = &Test{Line: fset.Position(c.Slash).Line, Debugger: name, Command: command}
			curComment = c
			continue
		}
		if cur == nil {
			return bp, false, errorf(c, "expected (debugger)-prefixed command, got %q", text)
		}
		cur.Want = append(cur.Want, text)
	}
	if err := flush(); err != nil {
		return bp, false, err
	}
	if len(bp.Tests) == 0 {
		return bp, false, errorf(lines[0], "breakpoint has no tests")
	}
	return bp, true, nil
}

func commentText(c *ast.Comment) string {
	return strings.TrimSpace(strings.TrimPrefix(c.Text, "//"))
}

// splitCommand splits "(gdb) print i" into "gdb" and "print i".
// Only a parenthesized run of letters followed by a space counts,
// which keeps regexes like "(a|b) = 1" out.
func splitCommand(text string) (name, command string, ok bool) {
	if !strings.HasPrefix(text, "(") {
		return "", "", false
	}
	end := strings.Index(text, ") ")
	if end < 0 {
		return "", "", false
	}
	name = text[1:end]
	if name == "" {
		return "", "", false
	}
	for _, r := range name {
		if r < 'a' || r > 'z' {
			return "", "", false
		}
	}
	return name, strings.TrimSpace(text[end+2:]), true
}

func knownDebugger(name string) bool {
	for _, d := range Debuggers {
		if d == name {
			return true
		}
	}
	return false
}
