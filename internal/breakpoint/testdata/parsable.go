package main

func Basic() {
	// BREAKPOINT
	// (gdb) cmd1
	// want1
	// (gdb) cmd2
	// want2a
	// want2b
	// (lldb) cmd3
	// want3
	_ = 0
}
func InlineComments() {
	// BREAKPOINT
	/* commentary */
	// (gdb) cmd4
	// want4a
	/* more commentary */
	// want4b
	_ = 0
}

func Disabled() {
	/*
		// BREAKPOINT
		// (gdb) cmd5
		// want5
	*/
	_ = 0 // BREAKPOINT is only a marker at the start of a group
}
