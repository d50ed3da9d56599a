package queue

import (
    "encoding/json"
    "os"
    "path/filepath"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestHandleMessage_AppendsLines(t *testing.T) {
    logPath := filepath.Join(t.TempDir(), "nested", "events.log")

    for _, ev := range []ArtifactEvent{
        {Type: EventCreated, UID: "ab12cd34:x", OwnerID: 1, OccurredAt: "2026-01-02T03:04:05Z"},
        {Type: EventDeleted, UID: "ab12cd34:x", OwnerID: 1, OccurredAt: "2026-01-02T03:05:00Z"},
    } {
        body, err := json.Marshal(ev)
        require.NoError(t, err)
        require.NoError(t, HandleMessage(body, logPath))
    }

    b, err := os.ReadFile(logPath)
    require.NoError(t, err)
    assert.Equal(t,
        "[2026-01-02T03:04:05Z] cm.created | uid=ab12cd34:x | owner_id=1\n"+
            "[2026-01-02T03:05:00Z] cm.deleted | uid=ab12cd34:x | owner_id=1\n",
        string(b))
}

func TestHandleMessage_Rejects(t *testing.T) {
    logPath := filepath.Join(t.TempDir(), "events.log")

    assert.Error(t, HandleMessage([]byte("{not json"), logPath))
    assert.Error(t, HandleMessage([]byte(`{"type":"cm.created"}`), logPath))

    _, err := os.Stat(logPath)
    assert.True(t, os.IsNotExist(err))
}
