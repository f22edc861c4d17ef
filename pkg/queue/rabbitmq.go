package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fanclub/pkg/config"
	"fanclub/pkg/logger"
	"fanclub/pkg/metrics"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	NotificationQueueName = "notification_queue"
	EventsExchange        = "fanclub.events"
)

// Routing keys, one per event type.
const (
	EventNewPost       = "new_post"
	EventNewSubscriber = "new_subscriber"
	EventNewLike       = "new_like"
	EventNewFollower   = "new_follower"
)

var routingKeys = []string{EventNewPost, EventNewSubscriber, EventNewLike, EventNewFollower}

// Event is a domain event published by the creator service. Recipients are
// resolved by the publisher so consumers need no database access.
type Event struct {
	Type       string    `json:"type"`
	ActorID    string    `json:"actor_id"`
	ActorName  string    `json:"actor_name,omitempty"`
	CreatorID  string    `json:"creator_id,omitempty"`
	PostingID  string    `json:"posting_id,omitempty"`
	TierID     string    `json:"tier_id,omitempty"`
	Title      string    `json:"title,omitempty"`
	Recipients []string  `json:"recipients"`
	Priority   int       `json:"priority,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher is what use cases depend on.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *logger.Logger
}

func NewRabbitMQClient(cfg *config.Config, log *logger.Logger) (*Client, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%s/",
		cfg.RabbitMQUser,
		cfg.RabbitMQPassword,
		cfg.RabbitMQHost,
		cfg.RabbitMQPort,
	)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareTopology(channel); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	log.Info("Connected to RabbitMQ at %s:%s", cfg.RabbitMQHost, cfg.RabbitMQPort)

	return &Client{
		conn:    conn,
		channel: channel,
		logger:  log,
	}, nil
}

func declareTopology(channel *amqp.Channel) error {
	err := channel.ExchangeDeclare(
		EventsExchange, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = channel.QueueDeclare(
		NotificationQueueName, // name
		true,                  // durable
		false,                 // delete when unused
		false,                 // exclusive
		false,                 // no-wait
		amqp.Table{
			"x-max-priority": 10,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	for _, key := range routingKeys {
		if err := channel.QueueBind(NotificationQueueName, key, EventsExchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue to %s: %w", key, err)
		}
	}
	return nil
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Publish sends event with its Type as routing key.
func (c *Client) Publish(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = c.channel.PublishWithContext(ctx,
		EventsExchange, // exchange
		event.Type,     // routing key
		false,          // mandatory
		false,          // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			Priority:     clampPriority(event.Priority),
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.OccurredAt,
		},
	)
	if err != nil {
		metrics.QueuePublishes.WithLabelValues(event.Type, "error").Inc()
		c.logger.Error("[RABBITMQ] Failed to publish %s: %v", event.Type, err)
		return fmt.Errorf("failed to publish message: %w", err)
	}

	metrics.QueuePublishes.WithLabelValues(event.Type, "ok").Inc()
	c.logger.Debug("[RABBITMQ] Published %s for %d recipients", event.Type, len(event.Recipients))
	return nil
}

// Consume delivers events to handler until ctx is done. Malformed messages are
// dropped; handler failures are requeued once and then dropped.
func (c *Client) Consume(ctx context.Context, handler func(ctx context.Context, event Event) error) error {
	msgs, err := c.channel.Consume(
		NotificationQueueName, // queue
		"",                    // consumer
		false,                 // auto-ack
		false,                 // exclusive
		false,                 // no-local
		false,                 // no-wait
		nil,                   // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("[RABBITMQ] Started consuming from %s", NotificationQueueName)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			c.handle(ctx, msg, handler)
		}
	}
}

func (c *Client) handle(ctx context.Context, msg amqp.Delivery, handler func(ctx context.Context, event Event) error) {
	event, err := DecodeEvent(msg.Body)
	if err != nil {
		c.logger.Error("[RABBITMQ] Failed to decode event: %v, body=%s", err, string(msg.Body))
		msg.Nack(false, false)
		return
	}

	if err := handler(ctx, event); err != nil {
		c.logger.Error("[RABBITMQ] Handler failed for %s: %v (redelivered=%t)", event.Type, err, msg.Redelivered)
		msg.Nack(false, !msg.Redelivered)
		return
	}
	msg.Ack(false)
}

// DecodeEvent parses a message body and checks the fields every consumer relies on.
func DecodeEvent(body []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return Event{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if event.Type == "" {
		return Event{}, fmt.Errorf("event has no type")
	}
	return event, nil
}

// GetQueueLength returns the number of messages in the queue
func (c *Client) GetQueueLength() (int, error) {
	queue, err := c.channel.QueueInspect(NotificationQueueName)
	if err != nil {
		return 0, err
	}
	return queue.Messages, nil
}

func clampPriority(p int) uint8 {
	if p < 0 {
		return 0
	}
	if p > 10 {
		return 10
	}
	return uint8(p)
}
