// basictypes tests the debuggers' ability
// to interpret basic types.
package main

func Stack() {
	var i int
	var u uint32
	// BREAKPOINT
	// (gdb) print i
	// \$[0-9]+ = 0
	// (gdb) print u
	// \$[0-9]+ = 0
	i = 5
	u = 1 << 31
	// BREAKPOINT
	// (gdb) printf "%d\n", i
	// 5
	// (gdb) print u
	// \$[0-9]+ = 2147483648
	// (gdb) whatis u
	// type = uint32
	// (lldb) frame variable i
	// \(int\) i = 5
	_, _ = i, u
	var b bool
	x := 0.5
	// BREAKPOINT
	// (gdb) print b
	// \$[0-9]+ = false
	// (gdb) print x
	// \$[0-9]+ = 0.5
	_, _ = b, x
}

func Heap() (*int, *bool) {
	i := 5
	b := false
	/* BROKEN, SKIPPED: escaped locals are not visible by name.
	// BREAKPOINT
	// (gdb) print i
	// \$[0-9]+ = 5
	// (gdb) print b
	// \$[0-9]+ = false
	*/
	return &i, &b
}

func main() {
	Stack()
	Heap()
}
