// Package queue contains the background consumer that listens to the
// cm.events queue and appends one line per event to an audit log.
package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/cmapi/internal/logging"
)

// StartEventConsumer connects to RabbitMQ, declares the durable cm.events
// queue and consumes until ctx is cancelled.  Lost connections are retried
// with exponential backoff capped at 30s.  Messages that cannot be handled
// are rejected without requeue so the loop keeps moving.
func StartEventConsumer(ctx context.Context, url, logPath string, log logging.Logger) error {
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(url)
        if err != nil {
            log.Warn(ctx, "event consumer: dial failed", "err", err, "retry_in", backoff.String())
            if !sleepCtx(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = consumeLoop(ctx, conn, logPath, log)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Warn(ctx, "event consumer: consume loop ended, reconnecting", "err", err)
        if !sleepCtx(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, logPath string, log logging.Logger) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Warn(ctx, "event consumer: set QoS failed", "err", err)
    }

    if _, err := ch.QueueDeclare(ArtifactEventsQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    msgs, err := ch.ConsumeWithContext(ctx, ArtifactEventsQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for d := range msgs {
        if err := HandleMessage(d.Body, logPath); err != nil {
            log.Error(ctx, "event consumer: handle message failed", "err", err)
            _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}

// HandleMessage decodes one event and appends it to the audit log at
// logPath, creating the directory if needed.
func HandleMessage(body []byte, logPath string) error {
    var ev ArtifactEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" || ev.UID == "" {
        return errors.New("event without type or uid")
    }
    if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(FormatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatLine renders an event as a single human-friendly log line.
func FormatLine(ev ArtifactEvent) string {
    return fmt.Sprintf("[%s] %s | uid=%s | owner_id=%d\n", ev.OccurredAt, ev.Type, ev.UID, ev.OwnerID)
}
