package authflow

import (
	"context"

	"github.com/pixgram-dev/pixgram/internal/identity"
)

// Observer is the identity provider's sign-in state feed
type Observer interface {
	Observe(ctx context.Context) <-chan identity.Event
}

// Load runs a page load: the guard first, then the machine on the
// provider's replayed state. With watch set the machine keeps handling
// changes until the page navigates away or ctx ends.
func (m *Machine) Load(ctx context.Context, observer Observer, watch bool, onOutcome func(Outcome)) error {
	if Guard(m.page, m.store) {
		m.log.Info().Str("path", m.page.Path()).Msg("No token found on protected page, redirecting to login")
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	events := observer.Observe(ctx)

	if watch {
		return m.Run(ctx, events, onOutcome)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case ev, ok := <-events:
		if !ok {
			return nil
		}
		out := m.Handle(ctx, ev)
		if onOutcome != nil {
			onOutcome(out)
		}
		return nil
	}
}
