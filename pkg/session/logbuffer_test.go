package session

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogBuffer_KeepsMostRecent(t *testing.T) {
	b := NewLogBuffer(100)
	for i := 0; i < 150; i++ {
		b.Append(fmt.Sprintf("line %d", i))
	}

	lines := b.Lines()
	assert.Len(t, lines, 100)
	assert.Equal(t, "line 50", lines[0])
	assert.Equal(t, "line 149", lines[99])
	for i, l := range lines {
		assert.Equal(t, fmt.Sprintf("line %d", i+50), l)
	}
}

func TestLogBuffer_UnderCapacity(t *testing.T) {
	b := NewLogBuffer(3)
	b.Append("a")
	b.Append("b")

	assert.Equal(t, []string{"a", "b"}, b.Lines())
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, 3, b.Cap())
}

func TestLogBuffer_MinimumCapacity(t *testing.T) {
	b := NewLogBuffer(0)
	b.Append("a")
	b.Append("b")
	assert.Equal(t, []string{"b"}, b.Lines())
}
