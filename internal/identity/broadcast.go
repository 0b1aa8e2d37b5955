package identity

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// broadcaster fans sign-in state out to observers. Each observer has its own
// unbounded queue so a slow consumer never loses an event.
type broadcaster struct {
	mu      sync.Mutex
	current *User
	subs    map[*subscriber]struct{}
}

type subscriber struct {
	mu     sync.Mutex
	queue  []Event
	notify chan struct{}
}

func newBroadcaster(current *User) *broadcaster {
	return &broadcaster{
		current: current,
		subs:    make(map[*subscriber]struct{}),
	}
}

func newEvent(user *User) Event {
	var u *User
	if user != nil {
		copied := *user
		u = &copied
	}
	return Event{ID: ulid.Make().String(), User: u, At: time.Now()}
}

func (b *broadcaster) currentUser() *User {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return nil
	}
	copied := *b.current
	return &copied
}

// publish records the new state and queues it for every observer
func (b *broadcaster) publish(user *User) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = user
	ev := newEvent(user)
	for s := range b.subs {
		s.push(ev)
	}
}

// observe registers an observer; the current state is queued first
func (b *broadcaster) observe(ctx context.Context) <-chan Event {
	s := &subscriber{notify: make(chan struct{}, 1)}

	b.mu.Lock()
	s.push(newEvent(b.current))
	b.subs[s] = struct{}{}
	b.mu.Unlock()

	out := make(chan Event)
	go func() {
		defer close(out)
		defer func() {
			b.mu.Lock()
			delete(b.subs, s)
			b.mu.Unlock()
		}()

		for {
			ev, ok := s.pop()
			if !ok {
				select {
				case <-s.notify:
					continue
				case <-ctx.Done():
					return
				}
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (s *subscriber) push(ev Event) {
	s.mu.Lock()
	s.queue = append(s.queue, ev)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *subscriber) pop() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return Event{}, false
	}
	ev := s.queue[0]
	s.queue = s.queue[1:]
	return ev, true
}
