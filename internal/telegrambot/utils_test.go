package telegrambot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitPipe(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"Simple", "a|b|c", []string{"a", "b", "c"}},
		{"WithSpaces", " a | b | c ", []string{"a", "b", "c"}},
		{"EmptyParts", "a||c", []string{"a", "", "c"}},
		{"Single", "a", []string{"a"}},
		{"Empty", "", []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitPipe(tt.input))
		})
	}
}

func TestChunkLines(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		assert.Empty(t, ChunkLines(nil, 100))
	})

	t.Run("SingleChunk", func(t *testing.T) {
		chunks := ChunkLines([]string{"one", "two"}, 100)
		assert.Equal(t, []string{"one\ntwo"}, chunks)
	})

	t.Run("SplitsOnLimit", func(t *testing.T) {
		long := strings.Repeat("x", 60)
		chunks := ChunkLines([]string{long, long, long}, 130)
		assert.Len(t, chunks, 2)
		assert.Equal(t, long+"\n"+long, chunks[0])
		assert.Equal(t, long, chunks[1])
	})

	t.Run("LimitRespected", func(t *testing.T) {
		lines := make([]string, 100)
		for i := range lines {
			lines[i] = strings.Repeat("y", 50)
		}
		for _, chunk := range ChunkLines(lines, 500) {
			assert.LessOrEqual(t, len(chunk), 500)
		}
	})
}
