package tabsignal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/sitesaver/internal/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrNoListener means no popup is subscribed; the caller falls back to
	// flagging the request instead.
	ErrNoListener = errors.New("no listener for tab message")
	// ErrAckTimeout means a listener got the message but did not acknowledge in time.
	ErrAckTimeout = errors.New("tab message not acknowledged")
)

// Publisher sends "save current tab" requests.
type Publisher struct {
	client     *redis.Client
	ackTimeout time.Duration
	log        logger.Logger
}

func NewPublisher(client *redis.Client, ackTimeout time.Duration, log logger.Logger) *Publisher {
	if ackTimeout <= 0 {
		ackTimeout = 2 * time.Second
	}
	return &Publisher{client: client, ackTimeout: ackTimeout, log: log}
}

// Send publishes tab and waits for the listener's ack.
func (p *Publisher) Send(ctx context.Context, tab Tab) (Ack, error) {
	msg := Message{
		Type:    MessageType,
		Payload: tab,
		ReplyTo: AckKey(uuid.NewString()),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return Ack{}, fmt.Errorf("failed to marshal tab message: %w", err)
	}

	receivers, err := p.client.Publish(ctx, Channel, data).Result()
	if err != nil {
		return Ack{}, fmt.Errorf("failed to publish tab message: %w", err)
	}
	if receivers == 0 {
		p.log.Info("no listeners for tab message", logger.String("url", tab.URL))
		return Ack{}, ErrNoListener
	}

	res, err := p.client.BLPop(ctx, p.ackTimeout, msg.ReplyTo).Result()
	if errors.Is(err, redis.Nil) {
		p.log.Warn("tab message not acknowledged",
			logger.String("url", tab.URL),
			logger.Duration("timeout", p.ackTimeout))
		return Ack{}, ErrAckTimeout
	}
	if err != nil {
		return Ack{}, fmt.Errorf("failed to wait for ack: %w", err)
	}

	// BLPOP answers [key, value]
	var ack Ack
	if err := json.Unmarshal([]byte(res[1]), &ack); err != nil {
		return Ack{}, fmt.Errorf("failed to unmarshal ack: %w", err)
	}
	p.log.Debug("tab message acknowledged", logger.String("url", tab.URL))
	return ack, nil
}
