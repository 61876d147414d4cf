package assistant

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Greeting opens every transcript.
const Greeting = "Hello. I am AmbuHelp. Do you need first aid advice while waiting?"

// Role identifies who wrote a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one transcript entry.
type Message struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Relay is what a Conversation needs from a Proxy.
type Relay interface {
	Send(ctx context.Context, text string) string
}

// Conversation is an append-only transcript in front of a Relay.
type Conversation struct {
	relay Relay
	now   func() time.Time

	mu       sync.Mutex
	messages []Message
}

// NewConversation seeds the transcript with the greeting.
func NewConversation(relay Relay) *Conversation {
	c := &Conversation{relay: relay, now: time.Now}
	c.messages = []Message{{Role: RoleModel, Text: Greeting, Timestamp: c.now()}}
	return c
}

// Ask appends the user's text, relays it and appends the reply. Blank
// input is ignored and reports false.
func (c *Conversation) Ask(ctx context.Context, text string) (Message, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, false
	}
	c.append(Message{Role: RoleUser, Text: text, Timestamp: c.now()})
	reply := Message{Role: RoleModel, Text: c.relay.Send(ctx, text), Timestamp: c.now()}
	c.append(reply)
	return reply, true
}

// Messages returns a copy of the transcript.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

func (c *Conversation) append(m Message) {
	c.mu.Lock()
	c.messages = append(c.messages, m)
	c.mu.Unlock()
}
