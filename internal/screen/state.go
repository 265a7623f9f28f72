// Package screen holds the per-screen state reducers. Every screen moves
// from Loading (or Idle) to Success or Error when its fetch completes;
// failures are reported with a fixed message and the cause is only logged.
package screen

import (
	"encoding/json"
)

type Kind int

const (
	KindIdle Kind = iota
	KindLoading
	KindSuccess
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindIdle:
		return "idle"
	case KindLoading:
		return "loading"
	case KindSuccess:
		return "success"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// State is what a client renders. Data is set only for Success and Message
// only for Error.
type State[T any] struct {
	Kind    Kind
	Data    T
	Message string
}

func Idle[T any]() State[T] { return State[T]{Kind: KindIdle} }

func Loading[T any]() State[T] { return State[T]{Kind: KindLoading} }

func Success[T any](data T) State[T] { return State[T]{Kind: KindSuccess, Data: data} }

func Failure[T any](message string) State[T] { return State[T]{Kind: KindError, Message: message} }

// Done reports whether the state is terminal until the next fetch.
func (s State[T]) Done() bool {
	return s.Kind == KindSuccess || s.Kind == KindError
}

type stateJSON[T any] struct {
	State   string `json:"state"`
	Data    *T     `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func (s State[T]) MarshalJSON() ([]byte, error) {
	out := stateJSON[T]{State: s.Kind.String(), Message: s.Message}
	if s.Kind == KindSuccess {
		data := s.Data
		out.Data = &data
	}
	return json.Marshal(out)
}
