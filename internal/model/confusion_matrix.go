package model

import "time"

// ConfusionMatrix is the metadata row of a stored matrix in the `cms`
// table.  The matrix itself lives in the artifact file cache under UID;
// OwnerID is the only authorization handle.
type ConfusionMatrix struct {
    ID        uint64    // cms.id
    UID       string    // cms.uid, "<email prefix>:<random token>"
    OwnerID   uint64    // cms.owner_id (references users.id)
    CreatedAt time.Time // cms.created_at
}
