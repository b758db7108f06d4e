package webchat

import "errors"

var (
	// ErrEmptyMessage is returned for blank user text. Nothing is recorded.
	ErrEmptyMessage = errors.New("webchat: message is empty")

	// ErrAwaitingResponse is returned when a message is sent before the
	// previous reply arrived.
	ErrAwaitingResponse = errors.New("webchat: still awaiting the previous reply")
)
