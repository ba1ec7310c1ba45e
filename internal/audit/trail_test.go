package audit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rkbisoi/applus-backend-demo/internal/common/logger"
	"github.com/rkbisoi/applus-backend-demo/internal/storage"
)

func createTestTrail(t *testing.T) *Trail {
	store, err := storage.NewJSONStore(t.TempDir(), logger.NewNoOpLogger())
	require.NoError(t, err)
	return NewTrail(store, nil, logger.NewZapAdapter(zaptest.NewLogger(t)))
}

func TestTrail_RecordAndQuery(t *testing.T) {
	trail := createTestTrail(t)
	ctx := context.Background()

	trail.Record(ctx, "APP_A", ActionApplicationSubmitted, map[string]interface{}{
		"certificate_type": "Digital Identity",
	})
	trail.Record(ctx, "APP_A", ActionPaymentValidation, map[string]interface{}{
		"overall_score": 85,
	})
	trail.Record(ctx, "APP_B", ActionApplicationSubmitted, nil)

	report, err := trail.Query(ctx, "APP_A")
	require.NoError(t, err)
	assert.Equal(t, "APP_A", report.ApplicationID)
	assert.Equal(t, 2, report.TotalEntries)
	require.Len(t, report.Entries, 2)
	assert.Equal(t, ActionApplicationSubmitted, report.Entries[0].Action)
	assert.Equal(t, ActionPaymentValidation, report.Entries[1].Action)
	assert.Equal(t, report.Entries[0].Timestamp, report.FirstEntry)
	assert.Equal(t, report.Entries[1].Timestamp, report.LastEntry)
}

func TestTrail_EntriesSortedAscending(t *testing.T) {
	trail := createTestTrail(t)
	ctx := context.Background()

	// Feed a decreasing clock so stored order disagrees with timestamp order.
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	offset := 3
	trail.now = func() time.Time {
		offset--
		return base.Add(time.Duration(offset) * time.Minute)
	}

	trail.Record(ctx, "APP_A", "STEP_3", nil)
	trail.Record(ctx, "APP_A", "STEP_2", nil)
	trail.Record(ctx, "APP_A", "STEP_1", nil)

	report, err := trail.Query(ctx, "APP_A")
	require.NoError(t, err)
	require.Len(t, report.Entries, 3)
	assert.Equal(t, "STEP_1", report.Entries[0].Action)
	assert.Equal(t, "STEP_2", report.Entries[1].Action)
	assert.Equal(t, "STEP_3", report.Entries[2].Action)
}

func TestTrail_QueryEmptyTrail(t *testing.T) {
	trail := createTestTrail(t)

	report, err := trail.Query(context.Background(), "APP_UNKNOWN")
	require.NoError(t, err)
	assert.Equal(t, 0, report.TotalEntries)
	assert.Empty(t, report.Entries)
	assert.Empty(t, report.FirstEntry)
	assert.Empty(t, report.LastEntry)
}

func TestTrail_LogIDsAreUniqueUUIDs(t *testing.T) {
	trail := createTestTrail(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		trail.Record(ctx, "APP_A", fmt.Sprintf("STEP_%d", i), nil)
	}

	report, err := trail.Query(ctx, "APP_A")
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, entry := range report.Entries {
		_, parseErr := uuid.Parse(entry.LogID)
		assert.NoError(t, parseErr)
		assert.False(t, seen[entry.LogID])
		seen[entry.LogID] = true
	}
}

func TestTrail_RecordFailureKeepsFailedStatus(t *testing.T) {
	trail := createTestTrail(t)
	ctx := context.Background()

	trail.RecordFailure(ctx, "APP_A", ActionAutoProcessing, map[string]interface{}{
		"error": "payment declined",
	})

	report, err := trail.Query(ctx, "APP_A")
	require.NoError(t, err)
	require.Len(t, report.Entries, 1)
	assert.Equal(t, "FAILED", report.Entries[0].Status)
	assert.Equal(t, "payment declined", report.Entries[0].Details["error"])
}
