package chunker

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/internal/domain"
)

func TestNewWindowChunkerRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name    string
		maxSize int
		overlap int
	}{
		{"overlap equals size", 100, 100},
		{"overlap exceeds size", 100, 150},
		{"zero size", 0, 0},
		{"negative overlap", 100, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewWindowChunker(tc.maxSize, tc.overlap)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrConfiguration)
		})
	}
}

func TestChunkRoundTrip(t *testing.T) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog. ", 40)
	doc := domain.Document{ID: "d1", Content: text}

	for _, cfg := range []struct{ size, overlap int }{
		{100, 0}, {100, 20}, {64, 63}, {7, 3}, {2000, 100},
	} {
		c, err := NewWindowChunker(cfg.size, cfg.overlap)
		require.NoError(t, err)
		chunks, err := c.Chunk(doc)
		require.NoError(t, err)
		require.NotEmpty(t, chunks)

		var b strings.Builder
		for i, ch := range chunks {
			runes := []rune(ch.Text)
			if i == 0 {
				b.WriteString(ch.Text)
			} else {
				b.WriteString(string(runes[cfg.overlap:]))
			}
		}
		assert.Equal(t, text, b.String(), "size=%d overlap=%d", cfg.size, cfg.overlap)
	}
}

func TestChunkExactOverlapAndOffsets(t *testing.T) {
	text := strings.Repeat("abcdefghij", 10)
	c, err := NewWindowChunker(30, 10)
	require.NoError(t, err)
	chunks, err := c.Chunk(domain.Document{ID: "d1", Content: text})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
		assert.Equal(t, "d1:"+strconv.Itoa(i), ch.ChunkID)
		assert.LessOrEqual(t, len([]rune(ch.Text)), 30)
		if i == 0 {
			continue
		}
		prev := chunks[i-1]
		assert.GreaterOrEqual(t, ch.Start, prev.Start, "offsets must be non-decreasing")
		// Consecutive chunks overlap by exactly the configured amount.
		assert.Equal(t, 10, prev.End-ch.Start)
		prevRunes := []rune(prev.Text)
		curRunes := []rune(ch.Text)
		assert.Equal(t, string(prevRunes[len(prevRunes)-10:]), string(curRunes[:10]))
	}
	last := chunks[len(chunks)-1]
	assert.Equal(t, len([]rune(text)), last.End)
}

func TestChunkMultibyteText(t *testing.T) {
	text := strings.Repeat("héllo wörld ", 30)
	c, err := NewWindowChunker(25, 5)
	require.NoError(t, err)
	chunks, err := c.Chunk(domain.Document{ID: "d1", Content: text})
	require.NoError(t, err)

	var b strings.Builder
	for i, ch := range chunks {
		if i == 0 {
			b.WriteString(ch.Text)
		} else {
			b.WriteString(string([]rune(ch.Text)[5:]))
		}
	}
	assert.Equal(t, text, b.String())
}

func TestChunkEmptyDocument(t *testing.T) {
	c, err := NewWindowChunker(100, 10)
	require.NoError(t, err)
	chunks, err := c.Chunk(domain.Document{ID: "d1", Content: ""})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunkShortDocumentIsSingleChunk(t *testing.T) {
	c, err := NewWindowChunker(1000, 100)
	require.NoError(t, err)
	chunks, err := c.Chunk(domain.Document{ID: "d1", Content: "short text"})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short text", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, 10, chunks[0].End)
}
