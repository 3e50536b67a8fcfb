package tabsignal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/sitesaver/internal/logger"
	"github.com/redis/go-redis/v9"
)

// Handler runs after a message has been acknowledged.
type Handler func(ctx context.Context, tab Tab) error

// Listener receives tab messages on behalf of the popup.
type Listener struct {
	client *redis.Client
	log    logger.Logger
	ready  chan struct{}
	now    func() time.Time
}

func NewListener(client *redis.Client, log logger.Logger) *Listener {
	return &Listener{client: client, log: log, ready: make(chan struct{}), now: time.Now}
}

// Ready is closed once the subscription is confirmed.
func (l *Listener) Ready() <-chan struct{} { return l.ready }

// Run subscribes and dispatches messages until ctx is done. Each message is
// acknowledged before handle is called.
func (l *Listener) Run(ctx context.Context, handle Handler) error {
	sub := l.client.Subscribe(ctx, Channel)
	defer func() {
		_ = sub.Close()
	}()

	// Wait for confirmation so publishers never race the subscription
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", Channel, err)
	}
	close(l.ready)
	l.log.Info("listening for tab messages", logger.String("channel", Channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			l.dispatch(ctx, msg, handle)
		}
	}
}

func (l *Listener) dispatch(ctx context.Context, msg *redis.Message, handle Handler) {
	var m Message
	if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
		l.log.Warn("invalid tab message", logger.Error(err))
		return
	}
	if m.Type != MessageType {
		l.log.Debug("ignoring message", logger.String("type", m.Type))
		return
	}

	if m.ReplyTo != "" {
		if err := l.ack(ctx, m.ReplyTo); err != nil {
			l.log.Warn("failed to acknowledge tab message", logger.Error(err))
		}
	}

	if err := handle(ctx, m.Payload); err != nil {
		l.log.Error("tab message handler failed",
			logger.String("url", m.Payload.URL),
			logger.Error(err))
	}
}

func (l *Listener) ack(ctx context.Context, replyTo string) error {
	data, err := json.Marshal(Ack{Received: true, At: l.now().UTC()})
	if err != nil {
		return err
	}
	pipe := l.client.TxPipeline()
	pipe.LPush(ctx, replyTo, data)
	pipe.Expire(ctx, replyTo, ackTTL)
	_, err = pipe.Exec(ctx)
	return err
}
