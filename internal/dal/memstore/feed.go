package memstore

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/corray333/backend-labs/pos/internal/service/models/change"
)

// Feed fans committed changes out to subscribers. Every subscriber has an
// unbounded queue, so a slow consumer never blocks writers or loses events.
type Feed struct {
	mu   sync.Mutex
	subs map[change.Collection]map[*subscriber]struct{}
}

type event struct {
	change change.Change
	err    error
}

type subscriber struct {
	mu     sync.Mutex
	queue  []event
	signal chan struct{}
}

func NewFeed() *Feed {
	return &Feed{subs: map[change.Collection]map[*subscriber]struct{}{}}
}

// Subscribe implements ichangefeed.IChangeFeed.
func (f *Feed) Subscribe(ctx context.Context, collection change.Collection) iter.Seq2[change.Change, error] {
	return func(yield func(change.Change, error) bool) {
		sub := f.add(collection)
		defer f.remove(collection, sub)

		if !yield(change.Change{Collection: collection, Op: change.OpSubscribed, At: time.Now()}, nil) {
			return
		}

		for {
			for _, ev := range sub.drain() {
				if !yield(ev.change, ev.err) || ev.err != nil {
					return
				}
			}
			select {
			case <-ctx.Done():
				return
			case <-sub.signal:
			}
		}
	}
}

// Interrupt delivers err to the current subscribers of collection, ending
// their iteration as a broken connection would.
func (f *Feed) Interrupt(collection change.Collection, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for sub := range f.subs[collection] {
		sub.push(event{err: err})
	}
}

// Subscribers returns the number of active subscriptions to collection.
func (f *Feed) Subscribers(collection change.Collection) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.subs[collection])
}

func (f *Feed) publish(changes ...change.Change) {
	if len(changes) == 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range changes {
		for sub := range f.subs[c.Collection] {
			sub.push(event{change: c})
		}
	}
}

func (f *Feed) add(collection change.Collection) *subscriber {
	sub := &subscriber{signal: make(chan struct{}, 1)}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subs[collection] == nil {
		f.subs[collection] = map[*subscriber]struct{}{}
	}
	f.subs[collection][sub] = struct{}{}

	return sub
}

func (f *Feed) remove(collection change.Collection, sub *subscriber) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs[collection], sub)
}

func (s *subscriber) push(ev event) {
	s.mu.Lock()
	s.queue = append(s.queue, ev)
	s.mu.Unlock()
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *subscriber) drain() []event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.queue
	s.queue = nil

	return out
}
