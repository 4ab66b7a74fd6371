package notify

import (
	"context"
	"encoding/json"

	"github.com/moksh-codedeveloper/E-Commerce-app-BE/internal/mq"
)

// SMSMessage is the broker payload for one outbound text message.
type SMSMessage struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// QueueSMSSender publishes outbound messages to a broker channel; the
// sms-worker command drains the channel and talks to the gateway. The
// publish itself is awaited, so the caller still observes broker
// failures synchronously.
type QueueSMSSender struct {
	queue   *mq.MQ
	channel string
}

func NewQueueSMSSender(queue *mq.MQ, channel string) *QueueSMSSender {
	return &QueueSMSSender{queue: queue, channel: channel}
}

func (s *QueueSMSSender) Send(ctx context.Context, to, body string) error {
	data, err := json.Marshal(SMSMessage{To: to, Body: body})
	if err != nil {
		return err
	}
	_, err = s.queue.Publish(ctx, s.channel, data, map[string]string{"type": "sms"})
	return err
}
