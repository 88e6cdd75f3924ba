package pipeline

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/stockstory/internal/models"
)

func TestAccumulator_KeepsPublishOrder(t *testing.T) {
	acc := NewAccumulator()
	acc.Append(models.WeeklySummary{DateRange: "a"})
	acc.Append(models.WeeklySummary{DateRange: "b"})
	acc.Append(models.WeeklySummary{DateRange: "c"})

	got := acc.Summaries()
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].DateRange)
	assert.Equal(t, "b", got[1].DateRange)
	assert.Equal(t, "c", got[2].DateRange)
	assert.Equal(t, 3, acc.Len())
}

func TestAccumulator_SummariesIsACopy(t *testing.T) {
	acc := NewAccumulator()
	acc.Append(models.WeeklySummary{DateRange: "a", Summary: "original"})

	got := acc.Summaries()
	got[0].Summary = "changed"

	assert.Equal(t, "original", acc.Summaries()[0].Summary)
}

func TestAccumulator_Remove(t *testing.T) {
	acc := NewAccumulator()
	acc.Append(models.WeeklySummary{DateRange: "a"})
	acc.Append(models.WeeklySummary{DateRange: "b"})

	assert.True(t, acc.Remove("a"))
	assert.False(t, acc.Remove("missing"))

	got := acc.Summaries()
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].DateRange)
}

func TestAccumulator_ConcurrentAppendAndRead(t *testing.T) {
	acc := NewAccumulator()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			acc.Append(models.WeeklySummary{DateRange: fmt.Sprintf("r%d", i)})
		}(i)
		go func() {
			defer wg.Done()
			_ = acc.Summaries()
			_ = acc.Len()
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, acc.Len())
}
