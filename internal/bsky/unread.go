package bsky

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// UnreadPoller fetches the unread notification count on a fixed interval and
// hands it to the callback. Fetch errors are logged at debug and otherwise
// swallowed; a transient failure just means a stale badge until the next
// tick.
type UnreadPoller struct {
	client   *Client
	interval time.Duration
	onCount  func(int64)
	done     chan struct{}
}

func NewUnreadPoller(client *Client, interval time.Duration, onCount func(int64)) *UnreadPoller {
	return &UnreadPoller{
		client:   client,
		interval: interval,
		onCount:  onCount,
		done:     make(chan struct{}),
	}
}

func (p *UnreadPoller) Start() {
	go p.run()
	log.Debug().Dur("interval", p.interval).Msg("unread poller started")
}

func (p *UnreadPoller) Stop() {
	close(p.done)
	log.Debug().Msg("unread poller stopped")
}

func (p *UnreadPoller) run() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			p.poll()
		}
	}
}

func (p *UnreadPoller) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := p.client.GetUnreadCount(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("unread count fetch failed")
		return
	}
	p.onCount(count)
}
