package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobStatusTransitions(t *testing.T) {
	assert.True(t, JobStatusPending.CanTransitionTo(JobStatusRunning))
	assert.True(t, JobStatusPending.CanTransitionTo(JobStatusCancelled))
	assert.True(t, JobStatusRunning.CanTransitionTo(JobStatusCompleted))
	assert.True(t, JobStatusRunning.CanTransitionTo(JobStatusFailed))

	// No backward or sideways moves.
	assert.False(t, JobStatusRunning.CanTransitionTo(JobStatusPending))
	assert.False(t, JobStatusRunning.CanTransitionTo(JobStatusCancelled))
	assert.False(t, JobStatusPending.CanTransitionTo(JobStatusCompleted))

	// Terminal states never transition.
	for _, s := range []JobStatus{JobStatusCompleted, JobStatusFailed, JobStatusCancelled} {
		assert.True(t, s.Terminal())
		for _, next := range []JobStatus{JobStatusPending, JobStatusRunning, JobStatusCompleted, JobStatusFailed, JobStatusCancelled} {
			assert.False(t, s.CanTransitionTo(next))
		}
	}

	assert.False(t, JobStatusPending.Terminal())
	assert.False(t, JobStatusRunning.Terminal())
}
