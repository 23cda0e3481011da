package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccessible_EntryStepAlwaysOpen(t *testing.T) {
	for current := 0; current < 5; current++ {
		assert.True(t, Accessible(0, current, map[int]bool{}),
			"step 0 must be reachable from step %d", current)
	}
}

func TestAccessible_CompletedStepsAlwaysOpen(t *testing.T) {
	// Completion dominates adjacency regardless of where the user sits.
	completed := map[int]bool{0: true, 1: true, 3: true}
	for current := 0; current < 5; current++ {
		for target := range completed {
			assert.True(t, Accessible(target, current, completed),
				"completed step %d must be reachable from step %d", target, current)
		}
	}
}

func TestAccessible_CurrentStepIsNoOp(t *testing.T) {
	assert.True(t, Accessible(2, 2, map[int]bool{}))
}

func TestAccessible_NextStepRequiresCompletion(t *testing.T) {
	assert.False(t, Accessible(1, 0, map[int]bool{}))
	assert.True(t, Accessible(1, 0, map[int]bool{0: true}))
}

func TestAccessible_NoForwardSkip(t *testing.T) {
	for current := 0; current < 3; current++ {
		assert.False(t, Accessible(current+2, current, map[int]bool{}),
			"skipping from %d to %d must be locked", current, current+2)
	}
	// Even with the current step done, only current+1 unlocks.
	assert.False(t, Accessible(3, 1, map[int]bool{1: true}))
}

func TestAccessible_NonAdjacentCompletedStep(t *testing.T) {
	// Completed {0,1,3}, sitting on 1: step 3 is reachable even though it
	// is not adjacent, and step 4 stays locked because 3 is not current.
	completed := map[int]bool{0: true, 1: true, 3: true}
	assert.True(t, Accessible(3, 1, completed))
	assert.False(t, Accessible(4, 1, completed))
}
