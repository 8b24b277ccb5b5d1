package session

// LogBuffer keeps the most recent user-facing log lines, evicting the oldest first.
type LogBuffer struct {
	lines    []string
	capacity int
}

// NewLogBuffer creates a buffer holding at most capacity lines.
func NewLogBuffer(capacity int) *LogBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &LogBuffer{
		lines:    make([]string, 0, capacity),
		capacity: capacity,
	}
}

// Append adds a line, dropping the oldest when the buffer is full.
func (b *LogBuffer) Append(line string) {
	if len(b.lines) == b.capacity {
		copy(b.lines, b.lines[1:])
		b.lines = b.lines[:len(b.lines)-1]
	}
	b.lines = append(b.lines, line)
}

// Lines returns a copy of the buffered lines, oldest first.
func (b *LogBuffer) Lines() []string {
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// Len returns the number of buffered lines.
func (b *LogBuffer) Len() int { return len(b.lines) }

// Cap returns the maximum number of lines kept.
func (b *LogBuffer) Cap() int { return b.capacity }
