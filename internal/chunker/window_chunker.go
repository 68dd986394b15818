package chunker

import (
	"fmt"
	"strconv"

	"docrag/internal/domain"
)

// WindowChunker splits text into fixed-size rune windows with overlap.
// Consecutive chunks overlap by exactly the configured number of runes,
// so stripping each chunk's leading overlap reconstructs the source text.
type WindowChunker struct {
	maxSize int
	overlap int
}

// NewWindowChunker validates the chunk configuration. Overlap must be
// strictly smaller than the window size.
func NewWindowChunker(maxSize, overlap int) (*WindowChunker, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrConfiguration, maxSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: chunk overlap must not be negative, got %d", domain.ErrConfiguration, overlap)
	}
	if overlap >= maxSize {
		return nil, fmt.Errorf("%w: chunk overlap (%d) must be smaller than chunk size (%d)",
			domain.ErrConfiguration, overlap, maxSize)
	}
	return &WindowChunker{maxSize: maxSize, overlap: overlap}, nil
}

// Chunk produces an ordered sequence of chunks covering the document's
// full text with no gaps. Pure function of the document and configuration.
func (c *WindowChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	runes := []rune(document.Content)
	if len(runes) == 0 {
		return nil, nil
	}
	step := c.maxSize - c.overlap
	var chunks []domain.Chunk
	for start, idx := 0, 0; ; start, idx = start+step, idx+1 {
		end := start + c.maxSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, domain.Chunk{
			DocumentID: document.ID,
			ChunkID:    document.ID + ":" + strconv.Itoa(idx),
			Index:      idx,
			Text:       string(runes[start:end]),
			Start:      start,
			End:        end,
		})
		if end == len(runes) {
			break
		}
	}
	return chunks, nil
}
