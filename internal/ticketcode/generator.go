package ticketcode

import (
	"context"
	"fmt"
	"time"
)

// MaxAttempts bounds the create-retry loop on code collisions. Exceeding it
// surfaces a generation-exhausted error; the whole create call is safe to
// retry.
const MaxAttempts = 5

// Counter counts tickets created at or after a given instant. The production
// implementation is the ticket repository.
type Counter interface {
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
}

// Generator allocates human-readable ticket codes of the form
// TKT-YYYYMMDD-NNNN, where the zero-padded sequence resets each UTC day.
// Uniqueness is not guaranteed by the generator itself: concurrent callers
// may observe the same count, so the caller must treat the code as a
// candidate and rely on the ticket_code unique constraint, retrying with a
// fresh candidate on collision.
type Generator struct {
	counter Counter
	now     func() time.Time
}

// NewGenerator builds a generator over the given counter.
func NewGenerator(counter Counter) *Generator {
	return &Generator{counter: counter, now: time.Now}
}

// NewGeneratorWithClock builds a generator with an injected clock.
func NewGeneratorWithClock(counter Counter, now func() time.Time) *Generator {
	return &Generator{counter: counter, now: now}
}

// Next produces the next candidate code for the current UTC day.
func (g *Generator) Next(ctx context.Context) (string, error) {
	today := g.now().UTC()
	midnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	count, err := g.counter.CountCreatedSince(ctx, midnight)
	if err != nil {
		return "", fmt.Errorf("count tickets since midnight: %w", err)
	}
	return Format(today, count+1), nil
}

// Format renders a code for the given date and sequence number.
func Format(date time.Time, seq int64) string {
	return fmt.Sprintf("TKT-%s-%04d", date.UTC().Format("20060102"), seq)
}
