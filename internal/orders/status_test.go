package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNextFollowsForwardProgression(t *testing.T) {
	steps := []struct{ from, to Status }{
		{StatusNew, StatusWaitingPayment},
		{StatusWaitingPayment, StatusInProgress},
		{StatusInProgress, StatusCompleted},
	}
	for _, s := range steps {
		next, err := Next(s.from)
		require.NoError(t, err)
		assert.Equal(t, s.to, next)
	}
}

func TestNextRejectsTerminalStatuses(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusCancelled} {
		_, err := Next(s)
		assert.ErrorIs(t, err, ErrOrderClosed, "status %s", s)
	}
}

func TestNextRejectsUnknownStatus(t *testing.T) {
	_, err := Next(Status("shipped"))
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestValid(t *testing.T) {
	for _, s := range []Status{StatusNew, StatusWaitingPayment, StatusInProgress, StatusCompleted, StatusCancelled} {
		assert.True(t, Valid(s), "status %s", s)
	}
	assert.False(t, Valid(Status("shipped")))
	assert.False(t, Valid(Status("")))
}

// Advancing from any non-terminal status always terminates in completed
// within three steps, never revisits a status, and then refuses to move.
func TestAdvanceAlwaysTerminates(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.SampledFrom([]Status{StatusNew, StatusWaitingPayment, StatusInProgress}).Draw(t, "start")

		seen := map[Status]bool{s: true}
		steps := 0
		for {
			next, err := Next(s)
			if err != nil {
				assert.ErrorIs(t, err, ErrOrderClosed)
				break
			}
			steps++
			require.LessOrEqual(t, steps, 3, "progression must terminate")
			require.False(t, seen[next], "status %s revisited", next)
			seen[next] = true
			s = next
		}
		assert.Equal(t, StatusCompleted, s)
	})
}
