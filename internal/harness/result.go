package harness

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/josharian/debugo/internal/breakpoint"
)

// Statuses sent by the debugger scripts.
const (
	StatusRunning = "RUNNING"
	StatusPass    = "PASS"
	StatusFail    = "FAIL"
	StatusError   = "ERROR"
	StatusInfo    = "INFO"
)

// TestResult represents something that happened while running a test.
type TestResult struct {
	Status string `json:"status"`
	File   string `json:"file"`
	Line   int    `json:"line"`
	Msg    string `json:"msg"`
}

func (tr TestResult) String() string {
	if tr.File == "" {
		return fmt.Sprintf("%s %s", tr.Status, tr.Msg)
	}
	return fmt.Sprintf("%s:%d %s %s", tr.File, tr.Line, tr.Status, tr.Msg)
}

// Report tallies the results of one source run under one debugger.
type Report struct {
	Source   string
	Debugger string
	Expected int // tests the source has for this debugger
	Pass     int
	Fail     int
	Error    int
	Problems []TestResult // every FAIL and ERROR, in arrival order

	completed int
	testLines map[int]bool // command lines of the expected tests
}

// NewReport returns an empty report for the tests in bps meant for debugger.
func NewReport(source, debugger string, bps []breakpoint.Breakpoint) Report {
	rep := Report{Source: source, Debugger: debugger, testLines: make(map[int]bool)}
	for _, bp := range bps {
		for _, t := range bp.TestsFor(debugger) {
			rep.Expected++
			rep.testLines[t.Line] = true
		}
	}
	return rep
}

// Add records r.
func (rep *Report) Add(r TestResult) {
	switch r.Status {
	case StatusPass:
		rep.Pass++
		rep.completed++
	case StatusFail:
		rep.Fail++
		rep.completed++
		rep.Problems = append(rep.Problems, r)
	case StatusError:
		rep.Error++
		if rep.testLines[r.Line] {
			// A command that errored still ran. Errors on a
			// breakpoint line mean none of its tests did.
			rep.completed++
		}
		rep.Problems = append(rep.Problems, r)
	}
}

// Missing is the number of expected tests that never reported an outcome,
// usually because their breakpoint was never hit.
func (rep *Report) Missing() int {
	if m := rep.Expected - rep.completed; m > 0 {
		return m
	}
	return 0
}

// OK reports whether every expected test ran and passed.
func (rep *Report) OK() bool {
	return rep.Fail == 0 && rep.Error == 0 && rep.Missing() == 0
}

func (rep *Report) String() string {
	status := StatusPass
	if !rep.OK() {
		status = StatusFail
	}
	s := fmt.Sprintf("%s [%s] %s: %d passed, %d failed, %d errors",
		status, rep.Debugger, rep.Source, rep.Pass, rep.Fail, rep.Error)
	if m := rep.Missing(); m > 0 {
		s += fmt.Sprintf(", %d of %d never ran", m, rep.Expected)
	}
	return s
}

// maxResultLine bounds one result line. FAIL messages carry the
// debugger's whole reply.
const maxResultLine = 16 << 20

// collect decodes newline-delimited results from r until EOF,
// passing each to fn.
func collect(r io.Reader, fn func(TestResult)) error {
	scan := bufio.NewScanner(r)
	scan.Buffer(make([]byte, 0, 64*1024), maxResultLine)
	for scan.Scan() {
		line := scan.Bytes()
		if len(line) == 0 {
			continue
		}
		var res TestResult
		if err := json.Unmarshal(line, &res); err != nil {
			return fmt.Errorf("unmarshal result %q: %w", line, err)
		}
		fn(res)
	}
	return scan.Err()
}
