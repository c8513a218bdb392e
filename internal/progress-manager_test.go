package internal

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProgressManagerSameNameDistinctJobs(t *testing.T) {
	// Two list entries can point at the same URL with no output path; their
	// byte counts must stay separate because tracking is keyed by job ID.
	pm := NewProgressManager()
	pm.Register("job-a", "http://127.0.0.1:8080/", 100)
	pm.Register("job-b", "http://127.0.0.1:8080/", 100)

	pm.Update("job-a", 40)
	pm.Update("job-b", 10)
	pm.Update("job-b", 10)

	require.Equal(t, int64(40), pm.progressMap["job-a"].Downloaded)
	require.Equal(t, int64(20), pm.progressMap["job-b"].Downloaded)

	pm.Complete("job-a", 100, "aaaa")
	pm.ReportError("job-b", &LengthMismatchError{Window: Window{Start: 0, Length: 100}, Received: 50})
	require.True(t, pm.progressMap["job-a"].Completed)
	require.Empty(t, pm.progressMap["job-a"].Failure)
	require.NotEmpty(t, pm.progressMap["job-b"].Failure)
}

func TestProgressManagerConcurrentDisplay(t *testing.T) {
	pm := NewProgressManager()
	pm.Register("job", "payload.bin", 1000)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				pm.Update("job", 1)
				pm.updateDisplay()
			}
		}()
	}
	wg.Wait()
	pm.Complete("job", 1000, "")
	pm.ShowSummary()
	require.Equal(t, int64(40), pm.progressMap["job"].Downloaded)
}
