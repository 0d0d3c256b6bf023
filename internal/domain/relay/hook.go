package relay

import (
	"context"
)

// InputHandler receives data sent by a remote client.
type InputHandler interface {
	OnClientInput(ctx context.Context, clientID string, data []byte) error
}

// InputHandlerFunc adapts a function to InputHandler.
type InputHandlerFunc func(ctx context.Context, clientID string, data []byte) error

func (f InputHandlerFunc) OnClientInput(ctx context.Context, clientID string, data []byte) error {
	return f(ctx, clientID, data)
}

// DiscardInput ignores all client input.
var DiscardInput InputHandler = InputHandlerFunc(func(context.Context, string, []byte) error {
	return nil
})

// ProcessInput forwards client input into the supervised process.
func ProcessInput(s *Supervisor) InputHandler {
	return InputHandlerFunc(func(_ context.Context, _ string, data []byte) error {
		if len(data) == 0 {
			return nil
		}
		return s.Write(data)
	})
}
