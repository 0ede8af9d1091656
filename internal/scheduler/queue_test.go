package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFIFO(t *testing.T) {
	var q fifo
	_, ok := q.pop()
	assert.False(t, ok)

	for i := range 200 {
		q.push(i)
	}
	for i := range 150 {
		v, ok := q.pop()
		assert.True(t, ok)
		assert.Equal(t, i, v)
	}
	assert.Equal(t, 50, q.len())
	assert.Less(t, len(q.items), 200, "popped space is reclaimed")

	q.push(200)
	for i := 150; i <= 200; i++ {
		v, _ := q.pop()
		assert.Equal(t, i, v)
	}
	assert.Zero(t, q.len())
}

func TestReadyQueues(t *testing.T) {
	var r readyQueues
	r.push(1, false)
	r.push(2, true)
	r.push(3, false)
	assert.False(t, r.empty())

	t.Run("workers never see main-only tasks", func(t *testing.T) {
		v, ok := r.pop(false)
		assert.True(t, ok)
		assert.Equal(t, 1, v)
		v, _ = r.pop(false)
		assert.Equal(t, 3, v)
		_, ok = r.pop(false)
		assert.False(t, ok)
		assert.False(t, r.empty())
	})

	t.Run("main worker drains its own queue first", func(t *testing.T) {
		r.push(4, false)
		v, _ := r.pop(true)
		assert.Equal(t, 2, v)
		v, _ = r.pop(true)
		assert.Equal(t, 4, v)
		assert.True(t, r.empty())
	})
}
