package ledger

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLedger_AddAndReset(t *testing.T) {
	l := New()
	l.Add(10, 5)
	l.Add(3, 0)
	l.Add(-4, -1)

	totals := l.Totals()
	assert.Equal(t, int64(13), totals.InputTokens)
	assert.Equal(t, int64(5), totals.OutputTokens)
	assert.Equal(t, int64(18), totals.Total())

	l.Reset()
	assert.Equal(t, int64(0), l.Totals().Total())
}

func TestLedger_ConcurrentAdds(t *testing.T) {
	l := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Add(2, 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(100), l.Totals().InputTokens)
	assert.Equal(t, int64(50), l.Totals().OutputTokens)
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int64
	}{
		{"", 0},
		{"abc", 1},
		{"abcd", 1},
		{"abcde", 2},
		{"🔗🔗🔗🔗🔗", 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EstimateTokens(tt.text), tt.text)
	}
}
