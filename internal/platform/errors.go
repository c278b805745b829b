package platform

import "fmt"

// CommandError reports a failed window-system call.
type CommandError struct {
	Op     string
	Window WindowID
	Err    error
}

func (e *CommandError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Window != 0 {
		return fmt.Sprintf("%s window 0x%x: %v", e.Op, uint32(e.Window), e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CommandError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func commandErr(op string, windowID WindowID, err error) error {
	if err == nil {
		return nil
	}
	return &CommandError{Op: op, Window: windowID, Err: err}
}
