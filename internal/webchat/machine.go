package webchat

import (
	"context"
	"errors"

	"github.com/looplab/fsm"
)

// Session states.
const (
	StateIdle             = "idle"
	StateAwaitingResponse = "awaiting_response"
)

const (
	eventSend  = "send"
	eventReply = "reply"
	eventFail  = "fail"
)

// newMachine rebuilds the session state machine at a stored state.
func newMachine(current string) *fsm.FSM {
	if current == "" {
		current = StateIdle
	}
	return fsm.NewFSM(
		current,
		fsm.Events{
			{Name: eventSend, Src: []string{StateIdle}, Dst: StateAwaitingResponse},
			{Name: eventReply, Src: []string{StateAwaitingResponse}, Dst: StateIdle},
			{Name: eventFail, Src: []string{StateAwaitingResponse}, Dst: StateIdle},
		},
		fsm.Callbacks{},
	)
}

// transition applies event to the session, mapping a refused transition
// from idle to ErrAwaitingResponse.
func transition(ctx context.Context, s *Session, event string) error {
	machine := newMachine(s.State)
	if err := machine.Event(ctx, event); err != nil {
		var invalid fsm.InvalidEventError
		if errors.As(err, &invalid) && event == eventSend {
			return ErrAwaitingResponse
		}
		return err
	}
	s.State = machine.Current()
	return nil
}
