// Package runner launches the external VM process that executes compiled
// evoscript bytecode. The VM itself is out of scope (spec §1); this package
// only implements the CLI-side half of "VM invocation" (spec §6):
// `vm_exe -b <b0> <b1> ... <bN>` with decimal byte arguments, then waiting
// for the child and best-effort killing it if the caller gives up early.
//
// Grounded on original_source/main.py's subprocess.run(["taskkill", ...])
// cleanup step, ported to the portable exec.Cmd.Process.Kill() the way
// SPEC_FULL.md's Open Question resolution describes: a CLI kills the child
// it spawned, it does not scan the OS process table by name.
package runner

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
)

// Options configures Run. MaxOutput, when non-zero, is checked against the
// byte count before Run spawns the VM (the CLI's `--vmoutsize` pre-check).
type Options struct {
	VMPath    string
	MaxOutput int // 0 means unchecked
}

// ErrOutputTooLarge is returned by Run when the compiled byte count exceeds
// Options.MaxOutput.
type ErrOutputTooLarge struct {
	Got, Max int
}

func (e *ErrOutputTooLarge) Error() string {
	return fmt.Sprintf("runner: compiled output is %d bytes, exceeds --vmoutsize limit of %d", e.Got, e.Max)
}

// Run spawns vm_exe with the decimal-byte-string argv form described in
// spec §6 ("vm_exe -b <b0> <b1> ... <bN>"), streams its stdout/stderr to the
// current process, and waits for it to exit. If ctx is canceled while the
// VM is still running, Run best-effort kills the child and returns ctx's
// error.
func Run(ctx context.Context, opts Options, code []byte) error {
	if opts.MaxOutput > 0 && len(code) > opts.MaxOutput {
		return &ErrOutputTooLarge{Got: len(code), Max: opts.MaxOutput}
	}

	args := make([]string, 0, len(code)+1)
	args = append(args, "-b")
	for _, b := range code {
		args = append(args, fmt.Sprintf("%d", b))
	}

	logrus.Debugf("runner: launching %s %s", opts.VMPath, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, opts.VMPath, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("runner: failed to start VM: %w", err)
	}

	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		return ctx.Err()
	}
	if waitErr != nil {
		logrus.Debugf("runner: VM exited with error: %v", waitErr)
	}
	return waitErr
}
