// generics tests the debuggers' ability to interpret
// instantiations of generic functions and types.
package main

// GenericStruct holds two values of the same type parameter.
type GenericStruct[T any] struct {
	one T
	two T
}

// Tuple pairs two values of arbitrary types.
type Tuple[A, B any] struct {
	first  A
	second B
}

func identity[T any](x T) T { return x }

func tupleize[T, U any](x T, y U) Tuple[U, T] { return Tuple[U, T]{y, x} }

// Locals is everything Generics has in scope at its breakpoint.
type Locals struct {
	A uint32
	B float64
	C Tuple[uint32, float64]
	D uint32
	E GenericStruct[uint32]
	F GenericStruct[uint8]
	G Tuple[GenericStruct[uint32], uint32]
	H Tuple[GenericStruct[uint8], uint32]
}

func Generics() Locals {
	a := identity(uint32(23))
	b := identity(23.0)

	c := tupleize(b, a)
	d := identity[uint32](7)

	e := GenericStruct[uint32]{one: 7, two: 9}
	f := GenericStruct[uint8]{one: 7, two: 9}

	g := tupleize(d, e)
	h := tupleize(d, f)

	// BREAKPOINT
	// (gdb) print a
	// \$[0-9]+ = 23
	// (gdb) whatis a
	// type = uint32
	// (gdb) print b
	// \$[0-9]+ = 23
	// (gdb) whatis b
	// type = float64
	// (gdb) print c
	// \$[0-9]+ = \{first = 23, second = 23\}
	// (gdb) whatis c
	// type = main\.Tuple\[uint32, ?float64\]
	// (gdb) print d
	// \$[0-9]+ = 7
	// (gdb) print e
	// \$[0-9]+ = \{one = 7, two = 9\}
	// (gdb) whatis e
	// type = main\.GenericStruct\[uint32\]
	/* uint8 may print with a character suffix, e.g. 7 '\a'. */
	// (gdb) print f
	// \$[0-9]+ = \{one = 7.*, two = 9.*\}
	// (gdb) whatis f
	// type = main\.GenericStruct\[uint8\]
	// (gdb) print g
	// \$[0-9]+ = \{first = \{one = 7, two = 9\}, second = 7\}
	// (gdb) print h
	// \$[0-9]+ = \{first = \{one = 7.*, two = 9.*\}, second = 7\}
	// (gdb) whatis h
	// type = main\.Tuple\[main\.GenericStruct\[uint8\], ?uint32\]
	// (lldb) frame variable a
	// \(uint32\) a = 23
	// (lldb) frame variable d
	// \(uint32\) d = 7
	return Locals{A: a, B: b, C: c, D: d, E: e, F: f, G: g, H: h}
}

func main() {
	Generics()
}
