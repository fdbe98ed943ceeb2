package buffer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/NinthDecimal/statsite/internal/sample"
)

func TestBuffer_AppendAndLen(t *testing.T) {
	b := New()
	assert.Equal(t, 0, b.Len())

	s, err := sample.Parse("x:1|c")
	assert.NoError(t, err)
	b.Append(s)
	b.Append(s)

	assert.Equal(t, 2, b.Len())
	assert.Len(t, b.Samples(), 2)
}

func TestBuffer_ConcurrentAppendIsRaceFree(t *testing.T) {
	b := New()
	s, err := sample.Parse("x:1|c")
	assert.NoError(t, err)

	const goroutines = 50
	const perGoroutine = 20
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				b.Append(s)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, goroutines*perGoroutine, b.Len())
}
