package dispatch

import (
	"sync"
	"time"
)

const defaultSubscriberBuffer = 16

// Subscribe returns a channel receiving a Snapshot after every transition
// and tracking frame, starting with the current state. A full buffer drops
// its oldest snapshot so the newest is always delivered and the controller
// never blocks. The returned func unsubscribes and closes the channel.
func (c *Controller) Subscribe(buffer int) (<-chan Snapshot, func()) {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	ch := make(chan Snapshot, buffer)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.snapshotLocked()
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

// publishLocked stamps the state and fans it out. c.mu must be held.
func (c *Controller) publishLocked(now time.Time) Snapshot {
	c.updatedAt = now
	snap := c.snapshotLocked()
	for _, ch := range c.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
	return snap
}
