package app

import (
	"sync"

	"levelup-gatekeeper/internal/domain"
)

// Feed fans progression events out to in-process subscribers.
type Feed struct {
	mu          sync.Mutex
	subscribers map[chan domain.ProgressEvent]string
}

func NewFeed() *Feed {
	return &Feed{subscribers: make(map[chan domain.ProgressEvent]string)}
}

// Subscribe returns a channel receiving events for guildID (all guilds when empty).
// The caller must invoke the returned cancel function to avoid leaks.
func (f *Feed) Subscribe(guildID string) (<-chan domain.ProgressEvent, func()) {
	ch := make(chan domain.ProgressEvent, 8)

	f.mu.Lock()
	f.subscribers[ch] = guildID
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish never blocks; a full subscriber loses its oldest pending event.
func (f *Feed) Publish(event domain.ProgressEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch, guildID := range f.subscribers {
		if guildID != "" && guildID != event.GuildID {
			continue
		}
		select {
		case ch <- event:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
}

// Subscribers returns the number of open subscriptions.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}
