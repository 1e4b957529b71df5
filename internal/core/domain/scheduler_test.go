package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduledTask_IsDue(t *testing.T) {
	now := time.Now()

	task := ScheduledTask{Enabled: true, Interval: time.Hour, NextRun: now.Add(-time.Second)}
	assert.True(t, task.IsDue(now))

	task.NextRun = now.Add(time.Minute)
	assert.False(t, task.IsDue(now))

	task.NextRun = now
	assert.True(t, task.IsDue(now))

	task.Enabled = false
	task.NextRun = time.Time{}
	assert.False(t, task.IsDue(now))

	task.Enabled = true
	task.Interval = 0
	assert.False(t, task.IsDue(now))
}

func TestIngestTaskID(t *testing.T) {
	id := IngestTaskID("demo")
	assert.Equal(t, "ingest:demo", id)

	packID, ok := PackIDFromTaskID(id)
	assert.True(t, ok)
	assert.Equal(t, "demo", packID)

	_, ok = PackIDFromTaskID("oauth-refresh")
	assert.False(t, ok)
}

func TestSyncKey(t *testing.T) {
	s := SyncState{Server: "http://edge:8000", PackID: "demo"}
	assert.Equal(t, "http://edge:8000#demo", s.Key())
	assert.Equal(t, s.Key(), SyncKey("http://edge:8000", "demo"))
}
