// Package assistant relays first-aid questions to a text-generation
// collaborator and always answers with something the user can act on.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wolfman30/ambu-dispatch/internal/observability/metrics"
	"github.com/wolfman30/ambu-dispatch/pkg/logging"
)

// Replies used when the collaborator cannot answer.
const (
	FallbackOpen    = "Network error. Please try again or call 108 immediately."
	FallbackSend    = "Connection issue. Focus on the patient and call 108."
	FallbackEmpty   = "I couldn't process that. Please call 108 for emergencies."
	FallbackFailure = "I'm having trouble connecting. Please call 108."
)

// DefaultTimeout bounds one round trip to the collaborator.
const DefaultTimeout = 30 * time.Second

// Session is one multi-turn chat with the collaborator.
type Session interface {
	Send(ctx context.Context, text string) (string, error)
	Close() error
}

// SessionFactory opens sessions primed with a system instruction.
type SessionFactory interface {
	Open(ctx context.Context, systemInstruction string) (Session, error)
}

// SessionFactoryFunc adapts a function to SessionFactory.
type SessionFactoryFunc func(ctx context.Context, systemInstruction string) (Session, error)

// Open calls f.
func (f SessionFactoryFunc) Open(ctx context.Context, systemInstruction string) (Session, error) {
	return f(ctx, systemInstruction)
}

// ProxyOptions configures a Proxy.
type ProxyOptions struct {
	Factory     SessionFactory
	Instruction string
	Timeout     time.Duration
	Logger      *logging.Logger
	Metrics     *metrics.AssistantMetrics
}

// Proxy owns a lazily opened session. Sends are serialized so the session
// sees turns in order.
type Proxy struct {
	factory     SessionFactory
	instruction string
	timeout     time.Duration
	logger      *logging.Logger
	metrics     *metrics.AssistantMetrics

	mu      sync.Mutex
	session Session
}

// NewProxy builds a proxy. The session is not opened until the first Send.
func NewProxy(opts ProxyOptions) *Proxy {
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if strings.TrimSpace(opts.Instruction) == "" {
		opts.Instruction = SystemInstruction
	}
	return &Proxy{
		factory:     opts.Factory,
		instruction: opts.Instruction,
		timeout:     opts.Timeout,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
	}
}

// Send relays text and returns the reply or a fallback. It never fails.
func (p *Proxy) Send(ctx context.Context, text string) (reply string) {
	start := time.Now()
	outcome := "ok"
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("assistant: collaborator panicked", "panic", fmt.Sprint(r))
			reply, outcome = FallbackFailure, "panic"
		}
		p.metrics.ObserveReply(outcome, time.Since(start).Seconds())
	}()

	// Turns are serialized; the timeout starts once this turn holds the session.
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if p.session == nil {
		if p.factory == nil {
			outcome = "open_error"
			p.logger.Warn("assistant: no session factory configured")
			return FallbackOpen
		}
		session, err := p.factory.Open(ctx, p.instruction)
		if err != nil || session == nil {
			outcome = "open_error"
			p.logger.Error("assistant: failed to start chat session", "error", err)
			return FallbackOpen
		}
		p.session = session
	}

	out, err := p.session.Send(ctx, text)
	if err != nil {
		outcome = "send_error"
		p.logger.Error("assistant: send failed", "error", err)
		return FallbackSend
	}
	if strings.TrimSpace(out) == "" {
		outcome = "empty"
		return FallbackEmpty
	}
	return out
}

// Close disposes the session, if one was opened.
func (p *Proxy) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return nil
	}
	err := p.session.Close()
	p.session = nil
	if err != nil {
		return fmt.Errorf("assistant: close session: %w", err)
	}
	return nil
}
