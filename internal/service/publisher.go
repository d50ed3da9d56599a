// Package service publishes confusion-matrix lifecycle events to RabbitMQ.
// Errors are logged and returned so callers can ignore failures without
// interrupting the main request flow.
package service

import (
    "context"
    "encoding/json"
    "time"

    "github.com/google/uuid"
    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/cmapi/internal/logging"
    q "github.com/iliyamo/cmapi/internal/queue"
)

// EventPublisher sends one artifact event.
type EventPublisher interface {
    Publish(ctx context.Context, ev q.ArtifactEvent) error
}

// NewEvent stamps an event of the given type with the current UTC time.
func NewEvent(typ, uid string, ownerID uint64) q.ArtifactEvent {
    return q.ArtifactEvent{
        Type:       typ,
        UID:        uid,
        OwnerID:    ownerID,
        OccurredAt: time.Now().UTC().Format(time.RFC3339),
    }
}

// AMQPPublisher dials the broker for each event.  Events are rare (one per
// matrix mutation) so there is no long-lived channel to babysit.
type AMQPPublisher struct {
    URL   string
    Queue string
    Log   logging.Logger
}

func NewAMQPPublisher(url string, log logging.Logger) *AMQPPublisher {
    return &AMQPPublisher{URL: url, Queue: q.ArtifactEventsQueue, Log: log}
}

// Publish declares the durable queue and publishes ev as a persistent
// message on the default exchange.
func (p *AMQPPublisher) Publish(ctx context.Context, ev q.ArtifactEvent) error {
    conn, err := amqp.Dial(p.URL)
    if err != nil {
        p.Log.Warn(ctx, "rabbitmq: dial failed", "err", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        p.Log.Warn(ctx, "rabbitmq: channel open failed", "err", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(
        p.Queue, // name
        true,    // durable
        false,   // autoDelete
        false,   // exclusive
        false,   // noWait
        nil,     // args
    ); err != nil {
        p.Log.Warn(ctx, "rabbitmq: queue declare failed", "err", err)
        return err
    }

    pub, err := buildPublishing(ev)
    if err != nil {
        p.Log.Warn(ctx, "rabbitmq: marshal event failed", "err", err)
        return err
    }

    if err := ch.PublishWithContext(ctx,
        "",      // default exchange
        p.Queue, // routing key = queue name
        false,   // mandatory
        false,   // immediate
        pub,
    ); err != nil {
        p.Log.Warn(ctx, "rabbitmq: publish failed", "err", err)
        return err
    }
    return nil
}

func buildPublishing(ev q.ArtifactEvent) (amqp.Publishing, error) {
    body, err := json.Marshal(ev)
    if err != nil {
        return amqp.Publishing{}, err
    }
    return amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        MessageId:    uuid.NewString(),
        Type:         ev.Type,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }, nil
}

// NoopPublisher drops every event.  Used when RabbitMQ is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, q.ArtifactEvent) error { return nil }
