package bridge

import "fmt"

// Result is the terminal outcome of one invocation: Decoded, SpawnFailure,
// ProcessFailure or DecodeFailure.
type Result interface {
	Kind() string
}

// Result kinds, also used as metric and span attribute values
const (
	KindDecoded        = "decoded"
	KindSpawnFailure   = "spawn_failure"
	KindProcessFailure = "process_failure"
	KindDecodeFailure  = "decode_failure"
)

// Decoded carries the JSON object the interpreter wrote to stdout
type Decoded struct {
	Value map[string]any
}

// SpawnFailure means the interpreter never started
type SpawnFailure struct {
	Err error
}

// ProcessFailure means the interpreter exited non-zero without writing any output
type ProcessFailure struct {
	ExitCode    int
	Diagnostics string
	TimedOut    bool
}

// DecodeFailure means stdout was not a single JSON object. Raw is kept verbatim.
type DecodeFailure struct {
	Raw []byte
	Err error
}

func (Decoded) Kind() string        { return KindDecoded }
func (SpawnFailure) Kind() string   { return KindSpawnFailure }
func (ProcessFailure) Kind() string { return KindProcessFailure }
func (DecodeFailure) Kind() string  { return KindDecodeFailure }

func (f SpawnFailure) Error() string {
	return fmt.Sprintf("failed to start interpreter: %v", f.Err)
}

func (f SpawnFailure) Unwrap() error { return f.Err }

func (f ProcessFailure) Error() string {
	if f.TimedOut {
		return fmt.Sprintf("interpreter timed out (exit code %d)", f.ExitCode)
	}
	return fmt.Sprintf("interpreter exited with code %d and no output", f.ExitCode)
}

func (f DecodeFailure) Error() string {
	return fmt.Sprintf("invalid JSON from interpreter: %v", f.Err)
}

func (f DecodeFailure) Unwrap() error { return f.Err }
