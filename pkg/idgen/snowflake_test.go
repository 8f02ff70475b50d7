package idgen

import (
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_UniqueUnderConcurrency(t *testing.T) {
	require.NoError(t, Init(7))

	const workers, perWorker = 8, 500
	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, workers*perWorker)
		wg   sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				no := GenerateEntryNo()
				mu.Lock()
				seen[no] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, workers*perWorker)
}

func TestPrefixes(t *testing.T) {
	assert.True(t, strings.HasPrefix(GenerateOrderNo(), "ORD"))
	assert.True(t, strings.HasPrefix(GenerateEntryNo(), "PTS"))
	_, err := uuid.Parse(NewUUID())
	assert.NoError(t, err)
}

func TestInit_RejectsOutOfRangeNode(t *testing.T) {
	assert.Error(t, Init(5000))
	require.NoError(t, Init(1))
}
