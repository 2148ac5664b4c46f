package converter

import "fmt"

// Pipeline stage names, reported in errors and observer events.
const (
	StagePalette  = "palette"
	StageEncode   = "encode"
	StageOptimize = "optimize"
)

// ToolMissingError reports that an external tool required for the requested
// operation is not installed or not reachable at its configured path.
type ToolMissingError struct {
	Tool string
}

func (e *ToolMissingError) Error() string {
	return fmt.Sprintf("%s is not installed or not on PATH", e.Tool)
}

// ExitError reports an external process that started but did not produce
// usable output. Stderr carries the tool's own diagnostics unmodified so
// they can be surfaced to the user.
type ExitError struct {
	Tool     string
	Stage    string
	Stderr   string
	TimedOut bool
}

func (e *ExitError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("%s timed out during %s", e.Tool, e.Stage)
	}
	if e.Stderr == "" {
		return fmt.Sprintf("%s failed during %s", e.Tool, e.Stage)
	}
	return fmt.Sprintf("%s failed during %s: %s", e.Tool, e.Stage, e.Stderr)
}
