package realtime

import (
	"context"
	"strings"
	"time"
)

// Sender is the part of a channel the typer needs.
type Sender interface {
	Send(ctx context.Context, e Event) error
}

type PacingMode string

const (
	// PacingBuffered groups fragments into small chunks.
	PacingBuffered PacingMode = "buffered"
	// PacingTyping sends one character at a time with a longer pause on newlines.
	PacingTyping PacingMode = "typing"
)

type Pacing struct {
	Mode PacingMode

	// buffered
	MinChunk   int
	FlushDelay time.Duration

	// typing
	CharDelay    time.Duration
	NewlineDelay time.Duration // added on top of CharDelay after '\n'
}

// DefaultPacing returns the stock delays for mode. Unknown modes fall back to buffered.
func DefaultPacing(mode PacingMode) Pacing {
	if mode == PacingTyping {
		return Pacing{Mode: PacingTyping, CharDelay: 8 * time.Millisecond, NewlineDelay: 40 * time.Millisecond}
	}
	return Pacing{Mode: PacingBuffered, MinChunk: 3, FlushDelay: 10 * time.Millisecond}
}

// Typer turns generated fragments into paced chunk events. It is not safe
// for concurrent use; one build owns one typer.
type Typer struct {
	sender  Sender
	pacing  Pacing
	phaseID string
	buf     strings.Builder
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewTyper(sender Sender, pacing Pacing) *Typer {
	if pacing.Mode != PacingTyping && pacing.MinChunk <= 0 {
		pacing.MinChunk = 1
	}
	return &Typer{sender: sender, pacing: pacing, sleep: Sleep}
}

// WithSleep replaces the delay function, mainly for tests.
func (t *Typer) WithSleep(sleep func(ctx context.Context, d time.Duration) error) *Typer {
	t.sleep = sleep
	return t
}

// SetPhase tags subsequent chunks. Call Flush first when switching phases.
func (t *Typer) SetPhase(id string) { t.phaseID = id }

// Write paces one fragment out to the channel. It returns after every chunk
// derived from the fragment has been sent.
func (t *Typer) Write(ctx context.Context, fragment string) error {
	if fragment == "" {
		return nil
	}
	if t.pacing.Mode == PacingTyping {
		return t.writeTyping(ctx, fragment)
	}
	t.buf.WriteString(fragment)
	if t.buf.Len() >= t.pacing.MinChunk || strings.Contains(fragment, "\n") {
		if err := t.flushBuffer(ctx); err != nil {
			return err
		}
		return t.sleep(ctx, t.pacing.FlushDelay)
	}
	return nil
}

// Flush sends whatever is still buffered.
func (t *Typer) Flush(ctx context.Context) error {
	return t.flushBuffer(ctx)
}

func (t *Typer) flushBuffer(ctx context.Context) error {
	if t.buf.Len() == 0 {
		return nil
	}
	text := t.buf.String()
	t.buf.Reset()
	return t.sender.Send(ctx, ChunkEvent{Text: text, PhaseID: t.phaseID})
}

func (t *Typer) writeTyping(ctx context.Context, fragment string) error {
	for _, r := range fragment {
		if err := t.sender.Send(ctx, ChunkEvent{Text: string(r), PhaseID: t.phaseID}); err != nil {
			return err
		}
		delay := t.pacing.CharDelay
		if r == '\n' {
			delay += t.pacing.NewlineDelay
		}
		if err := t.sleep(ctx, delay); err != nil {
			return err
		}
	}
	return nil
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
