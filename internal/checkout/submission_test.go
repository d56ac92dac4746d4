package checkout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

func TestSubmissionSuccessPath(t *testing.T) {
	s := New()
	fixed := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	assert.Equal(t, Editing, s.State())

	require.NoError(t, s.Begin())
	assert.True(t, s.InFlight())
	assert.ErrorIs(t, s.Begin(), shared.ErrBusy)
	assert.ErrorIs(t, s.Touch(), shared.ErrBusy)

	s.Succeed("B001-000123")
	snap := s.Snapshot()
	assert.Equal(t, Succeeded, snap.State)
	assert.Equal(t, "B001-000123", snap.Document)
	require.NotNil(t, snap.SubmittedAt)
	assert.Equal(t, fixed, *snap.SubmittedAt)

	require.NoError(t, s.Touch())
	snap = s.Snapshot()
	assert.Equal(t, Editing, snap.State)
	assert.Empty(t, snap.Document)
	assert.Nil(t, snap.SubmittedAt)
}

func TestSubmissionFailureAllowsRetry(t *testing.T) {
	s := New()
	require.NoError(t, s.Begin())
	s.Fail("Stock insuficiente")
	assert.Equal(t, Failed, s.State())
	assert.Equal(t, "Stock insuficiente", s.Snapshot().Reason)

	require.NoError(t, s.Begin())
	assert.Empty(t, s.Snapshot().Reason)
}

func TestSubmissionIgnoresOutcomeWithoutBegin(t *testing.T) {
	s := New()
	s.Succeed("X")
	s.Fail("Y")
	assert.Equal(t, Editing, s.State())
	assert.Equal(t, Snapshot{State: Editing}, s.Snapshot())
}
