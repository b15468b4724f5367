package watch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_ScheduleRebuild(t *testing.T) {
	s, err := NewScheduler(nil)
	require.NoError(t, err)

	id, err := s.ScheduleRebuild("*/5 * * * *", func() {})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, 1, s.Jobs())

	s.Start()
	require.NoError(t, s.Stop())
}

func TestScheduler_InvalidExpression(t *testing.T) {
	s, err := NewScheduler(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })

	_, err = s.ScheduleRebuild("not a cron", func() {})
	require.Error(t, err)
	assert.Equal(t, 0, s.Jobs())
}
