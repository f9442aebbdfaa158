// SPDX-License-Identifier: BSD-3-Clause

package hap

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// queueSize bounds each subscriber's channel. Per the concurrency model,
// overflow drops the oldest pending hap and logs it rather than blocking
// the poster.
const queueSize = 100

// Hap is one posted diagnostic event.
type Hap struct {
	ID        uuid.UUID
	Seq       uint64
	Kind      Kind
	Source    string
	Timestamp time.Time
}

// Bus is a multi-producer, multi-subscriber hap channel. The zero value is
// not usable; construct with New.
type Bus struct {
	mu     sync.Mutex
	subs   map[uint64]chan Hap
	nextID uint64
	seq    atomic.Uint64
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[uint64]chan Hap)}
}

// Subscribe registers a new subscriber and returns a receive-only channel of
// haps along with a function that unsubscribes and closes the channel.
func (b *Bus) Subscribe() (<-chan Hap, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Hap, queueSize)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
	}

	return ch, cancel
}

// Post emits kind from source to every current subscriber. Post never
// blocks: a subscriber whose queue is full has its oldest pending hap
// dropped, logged, and replaced by this one.
func (b *Bus) Post(kind Kind, source string) Hap {
	h := Hap{
		ID:        uuid.New(),
		Seq:       b.seq.Add(1),
		Kind:      kind,
		Source:    source,
		Timestamp: time.Now(),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- h:
		default:
			select {
			case dropped := <-ch:
				slog.Warn("hap: subscriber queue full, dropping oldest",
					"dropped_kind", dropped.Kind.String(), "dropped_seq", dropped.Seq)
			default:
			}
			select {
			case ch <- h:
			default:
			}
		}
	}

	return h
}
