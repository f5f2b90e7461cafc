package extract

import (
	"fmt"
	"strings"
	"testing"
)

func TestChunkSmallContentSingleChunk(t *testing.T) {
	c := NewChunker(DefaultContextWindow)
	chunks := c.Chunk("## A1 - Main Building\nsome register rows")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Index != 0 || chunks[0].PageNumber != 1 {
		t.Fatalf("unexpected chunk metadata: %+v", chunks[0])
	}
}

func TestChunkSplitsByPageMarkers(t *testing.T) {
	// Window of 1000 tokens means a 500-token threshold (2000 chars).
	var b strings.Builder
	for page := 1; page <= 4; page++ {
		fmt.Fprintf(&b, "\n----- Page %d -----\n", page)
		b.WriteString(strings.Repeat("register row data\n", 60))
	}
	content := b.String()

	c := NewChunker(1000)
	chunks := c.Chunk(content)
	if len(chunks) != 4 {
		t.Fatalf("expected 4 page chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if ch.PageNumber != i+1 {
			t.Errorf("chunk %d page = %d, want %d", i, ch.PageNumber, i+1)
		}
		if ch.Index != i {
			t.Errorf("chunk %d index = %d", i, ch.Index)
		}
		if !strings.Contains(ch.Content, fmt.Sprintf("Page %d", i+1)) {
			t.Errorf("chunk %d missing its page marker", i)
		}
	}
}

func TestChunkCharFallbackHasOverlap(t *testing.T) {
	// No page markers at all, forcing the character-count fallback.
	content := strings.Repeat("material description line\n", 400)

	c := NewChunker(1000)
	chunks := c.Chunk(content)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	// Adjacent chunks must share overlapping text so a row split across the
	// boundary appears whole in one of them.
	for i := 1; i < len(chunks); i++ {
		tail := chunks[i-1].Content
		if len(tail) > chunkOverlapChars {
			tail = tail[len(tail)-chunkOverlapChars:]
		}
		if !strings.Contains(chunks[i].Content, tail[:20]) {
			t.Errorf("chunk %d does not overlap its predecessor", i)
		}
	}

	// Reassembly must cover the whole document.
	var total int
	for _, ch := range chunks {
		total += len(ch.Content)
	}
	if total < len(content) {
		t.Fatalf("chunks cover %d chars of %d", total, len(content))
	}
}

func TestChunkOversizedPageSplitsBySections(t *testing.T) {
	var b strings.Builder
	b.WriteString("\n----- Page 1 -----\n")
	for s := 0; s < 6; s++ {
		fmt.Fprintf(&b, "## B%d - Building %d\n", s, s)
		b.WriteString(strings.Repeat("row\n", 200))
	}

	c := NewChunker(1000)
	chunks := c.Chunk(b.String())
	if len(chunks) < 2 {
		t.Fatalf("oversized page should split into sections, got %d chunks", len(chunks))
	}
	for _, ch := range chunks {
		if ch.PageNumber != 1 {
			t.Errorf("section chunk should keep page 1, got %d", ch.PageNumber)
		}
	}
}

func TestChunkTinyWindowTerminates(t *testing.T) {
	// A window whose chunk size falls under the overlap must still advance
	// through the document instead of looping on the same slice.
	var b strings.Builder
	for i := 0; i < 600; i++ {
		fmt.Fprintf(&b, "row %d\n", i)
	}
	content := b.String()

	c := NewChunker(100)
	chunks := c.Chunk(content)
	if len(chunks) == 0 {
		t.Fatalf("expected chunks")
	}
	var total int
	for _, ch := range chunks {
		total += len(ch.Content)
	}
	if total < len(content) {
		t.Fatalf("chunks cover %d chars of %d", total, len(content))
	}
	last := chunks[len(chunks)-1].Content
	if !strings.Contains(last, "row 599") {
		t.Fatalf("final chunk should reach the end of the document:\n%s", last)
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := EstimateTokens(strings.Repeat("a", 400)); got != 100 {
		t.Fatalf("EstimateTokens = %d, want 100", got)
	}
}
