// Package queue defines message payloads exchanged over the message broker.
package queue

// ArtifactEventsQueue is the durable queue carrying matrix lifecycle events.
const ArtifactEventsQueue = "cm.events"

// Event types.
const (
    EventCreated = "cm.created"
    EventUpdated = "cm.updated"
    EventDeleted = "cm.deleted"
)

// ArtifactEvent is published after a confusion matrix is created, updated
// or deleted.  Deletion only removes metadata, so consumers can use these
// events to find cache files that are no longer referenced.
type ArtifactEvent struct {
    Type       string `json:"type"`
    UID        string `json:"uid"`
    OwnerID    uint64 `json:"owner_id"`
    OccurredAt string `json:"occurred_at"` // RFC3339, UTC
}
