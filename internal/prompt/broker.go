// Package prompt delivers blocking browser prompts (confirm and alert) for one
// session and routes the user's answers back to the waiting caller.
package prompt

import (
	"context"
	"errors"
	"sync"

	"github.com/yourorg/catalogdash/internal/id"
)

type Kind string

const (
	KindConfirm Kind = "confirm"
	KindAlert   Kind = "alert"
)

var ErrUnknownPrompt = errors.New("unknown or already answered prompt")

type Prompt struct {
	ID      string `json:"id"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Broker queues prompts for whoever is streaming the session and matches
// answers to pending confirmations.
type Broker struct {
	outbox chan Prompt

	mu      sync.Mutex
	pending map[string]chan bool
}

func NewBroker(buffer int) *Broker {
	if buffer < 1 {
		buffer = 1
	}
	return &Broker{
		outbox:  make(chan Prompt, buffer),
		pending: make(map[string]chan bool),
	}
}

// Prompts is the queue the session's event stream drains.
func (b *Broker) Prompts() <-chan Prompt {
	return b.outbox
}

// Confirm shows message and blocks until the user answers or ctx ends.
func (b *Broker) Confirm(ctx context.Context, message string) (bool, error) {
	p := Prompt{ID: id.GenerateIDWithPrefix(id.PromptPrefix), Kind: KindConfirm, Message: message}
	answer := make(chan bool, 1)

	b.mu.Lock()
	b.pending[p.ID] = answer
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.pending, p.ID)
		b.mu.Unlock()
	}()

	if err := b.publish(ctx, p); err != nil {
		return false, err
	}
	select {
	case ok := <-answer:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Alert queues a notice. It only waits for room in the queue, not for the user.
func (b *Broker) Alert(ctx context.Context, message string) error {
	return b.publish(ctx, Prompt{ID: id.GenerateIDWithPrefix(id.PromptPrefix), Kind: KindAlert, Message: message})
}

// Answer resolves a pending confirmation.
func (b *Broker) Answer(promptID string, ok bool) error {
	b.mu.Lock()
	answer, found := b.pending[promptID]
	if found {
		delete(b.pending, promptID)
	}
	b.mu.Unlock()
	if !found {
		return ErrUnknownPrompt
	}
	answer <- ok
	return nil
}

func (b *Broker) publish(ctx context.Context, p Prompt) error {
	select {
	case b.outbox <- p:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
