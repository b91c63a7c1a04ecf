package api

import "fmt"

// RejectedError is an explicit success:false answer from the backend, as
// opposed to a transport or decoding failure.
type RejectedError struct {
	Action  string
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: rejected by backend", e.Action)
	}
	return fmt.Sprintf("%s: rejected by backend: %s", e.Action, e.Message)
}
