package testutil

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequentialIDs_Sequence(t *testing.T) {
	ids := NewSequentialIDs()
	assert.Equal(t, int64(0), ids.Count())

	assert.Equal(t, "00000000-0000-7000-8000-000000000001", ids.Generate())
	assert.Equal(t, "00000000-0000-7000-8000-000000000002", ids.Generate())
	assert.Equal(t, int64(2), ids.Count())

	ids.Reset()
	assert.Equal(t, "00000000-0000-7000-8000-000000000001", ids.Generate())
}

func TestSequentialIDs_ParseAsUUIDv7(t *testing.T) {
	parsed, err := uuid.Parse(NewSequentialIDs().Generate())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestSequentialIDs_ThreadSafe(t *testing.T) {
	ids := NewSequentialIDs()
	const numGoroutines = 50
	const callsPerGoroutine = 20

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	results := make([][]string, numGoroutines)
	for i := range numGoroutines {
		results[i] = make([]string, callsPerGoroutine)
		go func() {
			defer wg.Done()
			for j := range callsPerGoroutine {
				results[i][j] = ids.Generate()
			}
		}()
	}

	wg.Wait()

	seen := make(map[string]bool)
	for _, row := range results {
		for _, id := range row {
			require.False(t, seen[id], "duplicate id %s", id)
			seen[id] = true
		}
	}
	assert.Len(t, seen, numGoroutines*callsPerGoroutine)
	assert.Equal(t, int64(numGoroutines*callsPerGoroutine), ids.Count())
}
