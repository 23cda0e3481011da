package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController() *Controller {
	return NewController(DefaultRegistry(), DefaultPredicates(PredicateOptions{}))
}

func recordSuccess(t *testing.T, c *Controller, index int, payload Payload) {
	t.Helper()
	err := c.RecordResult(index, c.Epoch(), StepResult{Status: StatusSuccess, Payload: payload})
	require.NoError(t, err)
}

func TestController_InitialState(t *testing.T) {
	c := newTestController()

	summary := c.Summary()
	assert.Equal(t, 0, summary.CurrentStepIndex)
	assert.Equal(t, 0, summary.CompletedCount)
	assert.Equal(t, 5, summary.TotalSteps)
	assert.Equal(t, 0, summary.TotalLogCount)

	_, ok := c.Result(0)
	assert.False(t, ok, "no result recorded yet")
}

func TestController_NavigateGating(t *testing.T) {
	c := newTestController()

	// Step 0 not completed: step 1 is locked.
	err := c.Navigate(1)
	assert.ErrorIs(t, err, ErrStepLocked)
	assert.Equal(t, 0, c.Current(), "rejected navigation must not move the pointer")

	recordSuccess(t, c, 0, AnalyzeOutcome{Classification: "puppet", Convertible: true})

	require.NoError(t, c.Navigate(1))
	assert.Equal(t, 1, c.Current())

	// Context returned no chunks: step 1 stays incomplete, step 2 locked.
	recordSuccess(t, c, 1, ContextOutcome{Chunks: nil})
	err = c.Navigate(2)
	assert.ErrorIs(t, err, ErrStepLocked)
	assert.Equal(t, []int{0}, c.Completed())
}

func TestController_NavigateOutOfRange(t *testing.T) {
	c := newTestController()
	assert.ErrorIs(t, c.Navigate(-1), ErrStepOutOfRange)
	assert.ErrorIs(t, c.Navigate(5), ErrStepOutOfRange)
}

func TestController_NavigateToCompletedNonAdjacent(t *testing.T) {
	c := newTestController()

	recordSuccess(t, c, 0, AnalyzeOutcome{Convertible: true})
	recordSuccess(t, c, 1, ContextOutcome{Chunks: []ContextChunk{{Text: "ref"}}})
	recordSuccess(t, c, 3, ValidateOutcome{Passed: true})
	require.NoError(t, c.Navigate(1))

	// Completed {0,1,3}, current 1: 3 is reachable despite not being adjacent.
	require.NoError(t, c.Navigate(3))
	assert.Equal(t, 3, c.Current())
}

func TestController_IdempotentCompletion(t *testing.T) {
	c := newTestController()

	payload := AnalyzeOutcome{Convertible: true}
	recordSuccess(t, c, 0, payload)
	recordSuccess(t, c, 0, payload)

	assert.Equal(t, []int{0}, c.Completed())
	assert.Equal(t, 1, c.Summary().CompletedCount)
}

func TestController_ErrorResultStoredButNotCompleted(t *testing.T) {
	c := newTestController()

	err := c.RecordResult(0, c.Epoch(), StepResult{
		Status: StatusError,
		Error:  "classifier unavailable",
	})
	require.NoError(t, err)

	res, ok := c.Result(0)
	require.True(t, ok, "error results are stored for display")
	assert.Equal(t, StatusError, res.Status)
	assert.Empty(t, c.Completed())
	assert.ErrorIs(t, c.Navigate(1), ErrStepLocked)
}

func TestController_StoreIndependence(t *testing.T) {
	c := newTestController()

	convert := ConvertOutcome{Playbook: "---\n- hosts: all"}
	recordSuccess(t, c, 2, convert)
	recordSuccess(t, c, 1, ContextOutcome{Chunks: []ContextChunk{{Text: "doc"}}})

	res, ok := c.Result(2)
	require.True(t, ok)
	assert.Equal(t, convert, res.Payload, "writing step 1 must not touch step 2's result")
}

func TestController_ResultReplacement(t *testing.T) {
	c := newTestController()

	recordSuccess(t, c, 0, AnalyzeOutcome{Convertible: false, Summary: "first"})
	recordSuccess(t, c, 0, AnalyzeOutcome{Convertible: true, Summary: "second"})

	res, ok := c.Result(0)
	require.True(t, ok)
	assert.Equal(t, "second", res.Payload.(AnalyzeOutcome).Summary, "only the last result is retained")
	assert.Equal(t, []int{0}, c.Completed())
}

func TestController_LogsSurviveNavigation(t *testing.T) {
	c := newTestController()

	c.Log(2, "rendering prompt")
	c.Log(2, "calling generator")
	c.Log(2, "generator returned 412 lines")

	recordSuccess(t, c, 0, AnalyzeOutcome{Convertible: true})
	require.NoError(t, c.Navigate(0))
	require.NoError(t, c.Navigate(1))

	entries := c.Logs(2)
	require.Len(t, entries, 3)
	assert.Equal(t, "rendering prompt", entries[0].Message)
	assert.Equal(t, "calling generator", entries[1].Message)
	assert.Equal(t, "generator returned 412 lines", entries[2].Message)
}

func TestController_ClearLogsIsPerStep(t *testing.T) {
	c := newTestController()

	c.Log(1, "context query sent")
	c.Log(2, "generation started")
	c.ClearLogs(1)

	assert.Empty(t, c.Logs(1))
	assert.Len(t, c.Logs(2), 1)
}

func TestController_LogOutOfRangeIsDropped(t *testing.T) {
	c := newTestController()
	c.Log(99, "nobody home")
	assert.Equal(t, 0, c.Summary().TotalLogCount)
}

func TestController_ResetTotality(t *testing.T) {
	c := newTestController()

	recordSuccess(t, c, 0, AnalyzeOutcome{Convertible: true})
	require.NoError(t, c.Navigate(1))
	c.Log(0, "analysis done")

	c.Reset()

	summary := c.Summary()
	assert.Equal(t, 0, summary.CurrentStepIndex)
	assert.Equal(t, 0, summary.CompletedCount)
	assert.Equal(t, 0, summary.TotalLogCount)
	for i := 0; i < 5; i++ {
		_, ok := c.Result(i)
		assert.False(t, ok, "step %d result must be absent after reset", i)
	}
}

func TestController_StaleResultRejectedAfterReset(t *testing.T) {
	c := newTestController()

	// Snapshot the epoch as a dispatcher would, then reset mid-flight.
	epoch := c.Epoch()
	c.Reset()

	err := c.RecordResult(0, epoch, StepResult{
		Status:  StatusSuccess,
		Payload: AnalyzeOutcome{Convertible: true},
	})
	assert.ErrorIs(t, err, ErrStaleResult)

	_, ok := c.Result(0)
	assert.False(t, ok, "stale result must not be stored")
	assert.Empty(t, c.Completed())
}

func TestController_FullPipelineScenario(t *testing.T) {
	c := newTestController()

	recordSuccess(t, c, 0, AnalyzeOutcome{Classification: "chef", Convertible: true})
	require.NoError(t, c.Navigate(1))
	recordSuccess(t, c, 1, ContextOutcome{Chunks: []ContextChunk{{Text: "cookbook mapping"}}})
	require.NoError(t, c.Navigate(2))
	recordSuccess(t, c, 2, ConvertOutcome{Playbook: "---\n- hosts: all\n  tasks: []"})
	require.NoError(t, c.Navigate(3))
	recordSuccess(t, c, 3, ValidateOutcome{Passed: true, ExitCode: 0})
	require.NoError(t, c.Navigate(4))
	recordSuccess(t, c, 4, DeployOutcome{JobID: "job-7", Status: "queued"})

	summary := c.Summary()
	assert.Equal(t, 5, summary.CompletedCount)
	assert.Equal(t, 4, summary.CurrentStepIndex)

	// Backward navigation stays free after completion.
	require.NoError(t, c.Navigate(0))
	require.NoError(t, c.Navigate(4))
}
