package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_AccumulatesPerTimer(t *testing.T) {
	r := NewRecorder()
	r.Add(NetworkTiming, 1500*time.Microsecond)
	r.Add(NetworkTiming, 500*time.Microsecond)
	r.Add("other", time.Second)

	assert.InDelta(t, 2.0, r.Milliseconds(NetworkTiming), 0.001)
	assert.Equal(t, 2, r.Calls(NetworkTiming))
	assert.InDelta(t, 1000.0, r.Milliseconds("other"), 0.001)
	assert.Zero(t, r.Milliseconds("missing"))
}

func TestRunWithTimer_RecordsEvenOnError(t *testing.T) {
	r := NewRecorder()
	ctx := WithRecorder(context.Background(), r)

	_, err := RunWithTimer(ctx, NetworkTiming, func() (int, error) {
		return 0, errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 1, r.Calls(NetworkTiming))
}

func TestRunWithTimer_WithoutRecorder(t *testing.T) {
	v, err := RunWithTimer(context.Background(), NetworkTiming, func() (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Nil(t, FromContext(context.Background()))
}
