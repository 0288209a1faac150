package room

import (
	"errors"

	"github.com/roomcast/roomcast/internal/domain"
)

// ErrNegativeCount is returned by Recent for a negative n.
var ErrNegativeCount = errors.New("history: negative count")

// HistoryBuffer is a fixed-capacity circular buffer of chat events in
// insertion order. Appending beyond capacity evicts the oldest entries,
// so len never exceeds the capacity chosen at construction.
type HistoryBuffer struct {
	data []domain.ChatEvent
	head int // next write position
	size int
}

// NewHistoryBuffer creates a buffer holding at most capacity events.
// Capacities below one are clamped to one.
func NewHistoryBuffer(capacity int) *HistoryBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &HistoryBuffer{data: make([]domain.ChatEvent, capacity)}
}

// Append adds an event at the tail, evicting the oldest entry when full.
func (b *HistoryBuffer) Append(ev domain.ChatEvent) {
	b.data[b.head] = ev
	b.head = (b.head + 1) % len(b.data)
	if b.size < len(b.data) {
		b.size++
	}
}

// Recent returns up to the last n events in insertion order. Fewer than n
// stored events returns all of them; n of zero returns an empty slice.
func (b *HistoryBuffer) Recent(n int) ([]domain.ChatEvent, error) {
	if n < 0 {
		return nil, ErrNegativeCount
	}
	if n > b.size {
		n = b.size
	}

	out := make([]domain.ChatEvent, n)
	start := b.head - n
	if start < 0 {
		start += len(b.data)
	}
	for i := 0; i < n; i++ {
		out[i] = b.data[(start+i)%len(b.data)]
	}
	return out, nil
}

// All returns every stored event, oldest first.
func (b *HistoryBuffer) All() []domain.ChatEvent {
	out, _ := b.Recent(b.size)
	return out
}

// Len returns the number of stored events.
func (b *HistoryBuffer) Len() int {
	return b.size
}
