package assistant

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/ambu-dispatch/internal/observability/metrics"
)

type fakeSession struct {
	replies []string
	err     error
	panic   bool
	sent    []string
	closed  bool
	block   bool
}

func (s *fakeSession) Send(ctx context.Context, text string) (string, error) {
	s.sent = append(s.sent, text)
	if s.panic {
		panic("boom")
	}
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "", nil
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r, nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type countingFactory struct {
	session     *fakeSession
	failures    int
	opens       int
	instruction string
}

func (f *countingFactory) Open(_ context.Context, instruction string) (Session, error) {
	f.opens++
	f.instruction = instruction
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("dns failure")
	}
	return f.session, nil
}

func TestProxyOpensSessionOnceWithInstruction(t *testing.T) {
	session := &fakeSession{replies: []string{"Apply pressure.", "Keep them warm."}}
	factory := &countingFactory{session: session}
	p := NewProxy(ProxyOptions{Factory: factory})

	assert.Equal(t, "Apply pressure.", p.Send(context.Background(), "bleeding"))
	assert.Equal(t, "Keep them warm.", p.Send(context.Background(), "what next"))
	assert.Equal(t, 1, factory.opens)
	assert.Equal(t, SystemInstruction, factory.instruction)
	assert.Equal(t, []string{"bleeding", "what next"}, session.sent)
}

func TestProxyOpenFailureIsRetried(t *testing.T) {
	factory := &countingFactory{session: &fakeSession{replies: []string{"ok"}}, failures: 1}
	p := NewProxy(ProxyOptions{Factory: factory})

	assert.Equal(t, FallbackOpen, p.Send(context.Background(), "hi"))
	assert.Equal(t, "ok", p.Send(context.Background(), "hi"))
	assert.Equal(t, 2, factory.opens)
}

func TestProxyWithoutFactory(t *testing.T) {
	p := NewProxy(ProxyOptions{})
	assert.Equal(t, FallbackOpen, p.Send(context.Background(), "hi"))
}

func TestProxySendFailure(t *testing.T) {
	p := NewProxy(ProxyOptions{Factory: &countingFactory{session: &fakeSession{err: errors.New("503")}}})
	assert.Equal(t, FallbackSend, p.Send(context.Background(), "hi"))
}

func TestProxyEmptyReply(t *testing.T) {
	p := NewProxy(ProxyOptions{Factory: &countingFactory{session: &fakeSession{replies: []string{"   "}}}})
	assert.Equal(t, FallbackEmpty, p.Send(context.Background(), "hi"))
}

func TestProxyRecoversPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewProxy(ProxyOptions{
		Factory: &countingFactory{session: &fakeSession{panic: true}},
		Metrics: metrics.NewAssistantMetrics(reg),
	})
	assert.Equal(t, FallbackFailure, p.Send(context.Background(), "hi"))

	// The lock was released by the deferred unlock.
	p.session = &fakeSession{replies: []string{"fine"}}
	assert.Equal(t, "fine", p.Send(context.Background(), "hi"))
}

func TestProxyTimeout(t *testing.T) {
	p := NewProxy(ProxyOptions{
		Factory: &countingFactory{session: &fakeSession{block: true}},
		Timeout: 10 * time.Millisecond,
	})
	assert.Equal(t, FallbackSend, p.Send(context.Background(), "hi"))
}

type slowSession struct {
	delay time.Duration
}

func (s slowSession) Send(ctx context.Context, text string) (string, error) {
	select {
	case <-time.After(s.delay):
		return "ok " + text, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (slowSession) Close() error { return nil }

func TestProxyTimeoutExcludesQueuedTurns(t *testing.T) {
	p := NewProxy(ProxyOptions{
		Factory: SessionFactoryFunc(func(context.Context, string) (Session, error) {
			return slowSession{delay: 120 * time.Millisecond}, nil
		}),
		Timeout: 200 * time.Millisecond,
	})

	replies := make([]string, 2)
	var wg sync.WaitGroup
	for i := range replies {
		wg.Add(1)
		go func() {
			defer wg.Done()
			replies[i] = p.Send(context.Background(), "q")
		}()
	}
	wg.Wait()
	assert.Equal(t, []string{"ok q", "ok q"}, replies)
}

func TestProxyClose(t *testing.T) {
	session := &fakeSession{replies: []string{"ok"}}
	p := NewProxy(ProxyOptions{Factory: &countingFactory{session: session}})
	require.NoError(t, p.Close())

	p.Send(context.Background(), "hi")
	require.NoError(t, p.Close())
	assert.True(t, session.closed)
}

func TestNewGeminiSessionFactoryRequiresKey(t *testing.T) {
	_, err := NewGeminiSessionFactory(" ", "")
	assert.Error(t, err)

	f, err := NewGeminiSessionFactory("key", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultModelID, f.modelID)
}

func TestReplyText(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Text("Call 108. "), genai.Text("Start CPR.")}},
	}}}
	assert.Equal(t, "Call 108. Start CPR.", replyText(resp))
	assert.Empty(t, replyText(&genai.GenerateContentResponse{}))
	assert.Empty(t, replyText(nil))
}
