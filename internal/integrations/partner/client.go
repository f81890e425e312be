package partner

import "context"

// Client delivers one serialized outbound message to the partner system.
// Only success/failure is visible to the caller.
type Client interface {
	Send(ctx context.Context, payload []byte) error
}
