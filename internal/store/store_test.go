package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/pr-warden/internal/core"
)

// setupTestRedis creates a Redis client for testing. Tests are skipped if
// Redis is not reachable.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func sampleReport() *core.AnalysisReport {
	return core.BuildReport([]core.Finding{
		{File: "main.go", Type: core.FindingBug, Line: 10, Description: "d", Suggestion: "s"},
	})
}

func TestRedisStore_SetAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	client := setupTestRedis(t)
	s := NewRedisStore(client, time.Minute)
	ctx := context.Background()

	jobID := uuid.NewString()
	require.NoError(t, s.Set(ctx, &core.JobRecord{JobID: jobID, Status: core.StatusPending}))

	record, err := s.Get(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, jobID, record.JobID)
	assert.Equal(t, core.StatusPending, record.Status)
	assert.Nil(t, record.Report)
	assert.Empty(t, record.Error)
}

func TestRedisStore_UnknownJobIsNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	client := setupTestRedis(t)
	s := NewRedisStore(client, time.Minute)

	_, err := s.Get(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, core.ErrJobNotFound)
}

func TestRedisStore_OverwriteReplacesWholeRecord(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	client := setupTestRedis(t)
	s := NewRedisStore(client, time.Minute)
	ctx := context.Background()
	jobID := uuid.NewString()

	// Fail the job first, then complete it. The completed record must carry
	// no trace of the earlier error.
	require.NoError(t, s.Set(ctx, &core.JobRecord{JobID: jobID, Status: core.StatusFailed, Error: "boom"}))
	require.NoError(t, s.Set(ctx, &core.JobRecord{JobID: jobID, Status: core.StatusCompleted, Report: sampleReport()}))

	record, err := s.Get(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, record.Status)
	require.NotNil(t, record.Report)
	assert.Equal(t, 1, record.Report.Summary.TotalIssues)
	assert.Empty(t, record.Error, "no field bleeding from the previous write")
}

func TestRedisStore_RecordExpires(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	client := setupTestRedis(t)
	s := NewRedisStore(client, 50*time.Millisecond)
	ctx := context.Background()
	jobID := uuid.NewString()

	require.NoError(t, s.Set(ctx, &core.JobRecord{JobID: jobID, Status: core.StatusCompleted, Report: sampleReport()}))

	_, err := s.Get(ctx, jobID)
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)

	_, err = s.Get(ctx, jobID)
	assert.ErrorIs(t, err, core.ErrJobNotFound, "expired record must look like it never existed")
}

func TestRedisStore_WriteResetsExpiry(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	client := setupTestRedis(t)
	s := NewRedisStore(client, 200*time.Millisecond)
	ctx := context.Background()
	jobID := uuid.NewString()

	require.NoError(t, s.Set(ctx, &core.JobRecord{JobID: jobID, Status: core.StatusPending}))
	time.Sleep(120 * time.Millisecond)
	require.NoError(t, s.Set(ctx, &core.JobRecord{JobID: jobID, Status: core.StatusProcessing}))
	time.Sleep(120 * time.Millisecond)

	// 240ms after the first write but only 120ms after the second: the
	// record must still be there because every write resets the window.
	record, err := s.Get(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusProcessing, record.Status)
}

func TestRedisStore_EmptyJobID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	client := setupTestRedis(t)
	s := NewRedisStore(client, time.Minute)

	assert.Error(t, s.Set(context.Background(), &core.JobRecord{}))
	_, err := s.Get(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrJobNotFound)
}
