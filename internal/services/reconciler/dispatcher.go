package reconciler

import (
	"context"

	"github.com/BearBump/TrackRelay/internal/edi"
	"github.com/BearBump/TrackRelay/internal/integrations/partner"
	"github.com/BearBump/TrackRelay/internal/models"
	"github.com/pkg/errors"
)

// Dispatcher decides whether a built message goes out and transmits it.
// Two independent gates must both pass: the message type has to be on the
// outbound allow-list, and at least one event item must have survived
// filtering. On a send failure it waits the retry delay and retries exactly
// once; the second failure is fatal for the pass.
type Dispatcher struct {
	partner partner.Client
	policy  *PacingPolicy
	allowed map[string]struct{}
}

func NewDispatcher(p partner.Client, policy *PacingPolicy) *Dispatcher {
	return &Dispatcher{
		partner: p,
		policy:  policy,
		allowed: map[string]struct{}{
			models.MessageTypeTRKINF: {},
		},
	}
}

// Dispatch returns whether the message was actually sent. A message held
// back by either gate is not an error.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *edi.TRKINF) (bool, error) {
	if _, ok := d.allowed[msg.MessageTypeIdentifier]; !ok {
		return false, nil
	}
	if len(msg.Events) == 0 {
		return false, nil
	}

	payload, err := msg.Marshal()
	if err != nil {
		return false, err
	}

	if err := d.partner.Send(ctx, payload); err != nil {
		d.policy.RetryWait()
		if err2 := d.partner.Send(ctx, payload); err2 != nil {
			return false, errors.Wrap(err2, "partner send retry")
		}
	}
	return true, nil
}
