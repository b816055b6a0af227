// debugger-test runs automated tests of Go's gdb and lldb support.
//
// # How to write tests
//
// Tests are regular Go programs with special inline comments.
// The comments indicate where to set breakpoints, what debugger
// commands to run when that breakpoint is hit, and what response
// the debugger should provide. For example:
//
//	func Pair() (uint32, GenericStruct[uint8]) {
//		d := identity[uint32](7)
//		f := GenericStruct[uint8]{one: 7, two: 9}
//		// BREAKPOINT
//		// (gdb) print d
//		// \$[0-9]+ = 7
//		// (gdb) whatis f
//		// type = main\.GenericStruct\[uint8\]
//		// (lldb) frame variable d
//		// \(uint32\) d = 7
//		return d, f
//	}
//
// Breakpoints get set at the "// BREAKPOINT" line; the debugger stops at
// the next statement. Breakpoints are temporary; any given breakpoint
// will trigger exactly once.
//
// Commands are prefaced with "(gdb)" or "(lldb)", depending on which
// debugger they are to be run with. Commands for different debuggers
// can be intermingled freely. A command may be followed by several lines
// of expected output.
//
// The expected output is interpreted as an anchored Python regular
// expression, thus the escaping of the dollar signs and parens above.
//
// The test parser ignores /* */ comments. Use them for commentary in the
// middle of a test, or to disable a whole BREAKPOINT block.
//
// # Configuration
//
// A YAML file passed with --config may set tool paths, gcflags, a per
// debugger timeout and debuggers to skip:
//
//	gdb: /usr/local/bin/gdb
//	python: /usr/bin/python3
//	gcflags: all=-N -l
//	timeout: 2m
//	skip: [lldb]
//
// # How it works
//
//  1. Gather environment info: Where is the Go command? Where is GOROOT? Are lldb
//     and gdb available?
//  2. Parse the source file, extracting breakpoints and associated tests.
//  3. Compile the source file into a temp directory.
//  4. Generate a script to be fed to gdb/lldb. The gdb script is a sequence of
//     gdb commands, dropping down to Python as needed. The lldb script is a
//     Python script, which uses the Python lldb module to drive lldb.
//  5. Listen on a socket to receive test results.
//  6. Execute the test script, gathering results.
//  7. Repeat as needed.
package main
