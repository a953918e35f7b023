package debug

import "fmt"

// DEBUG gates Assertf and is set from config.yml's `debug` key when the CLI
// starts up.
var DEBUG bool

func Assertf(b bool, format string, a ...any) {
	if DEBUG && !b {
		panic(fmt.Sprintf(format, a...))
	}
}

func AssertEq[T comparable](expected, got T) { Assertf(expected == got, "%v != %v", expected, got) }
