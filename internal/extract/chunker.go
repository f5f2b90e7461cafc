package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// Chunk is one model-sized slice of a document.
type Chunk struct {
	Content    string
	PageNumber int
	Index      int
}

const (
	// DefaultContextWindow matches gpt-4o-mini class models.
	DefaultContextWindow = 128000
	// chunkThresholdRatio keeps the prompt well under the window so the
	// response has room.
	chunkThresholdRatio = 0.5
	charsPerToken       = 4
	chunkOverlapChars   = 500
)

var sectionHeaderPattern = regexp.MustCompile(`(?m)^#{1,3}\s+.+$`)

// Chunker splits preprocessed document text for extraction. The zero value
// is not usable; use NewChunker.
type Chunker struct {
	contextWindow int
}

func NewChunker(contextWindow int) *Chunker {
	if contextWindow <= 0 {
		contextWindow = DefaultContextWindow
	}
	return &Chunker{contextWindow: contextWindow}
}

// EstimateTokens approximates token count from character count. Exact
// tokenization is provider-specific and not worth a dependency for a
// threshold decision.
func EstimateTokens(s string) int {
	return len(s) / charsPerToken
}

// Chunk splits content into pieces that fit under the chunking threshold.
// Content under the threshold comes back as a single chunk. Oversized
// content splits at page markers when present, falling back to
// character-count slices with overlap so no register row is lost at a
// boundary.
func (c *Chunker) Chunk(content string) []Chunk {
	threshold := int(float64(c.contextWindow) * chunkThresholdRatio)

	if EstimateTokens(content) <= threshold {
		return []Chunk{{Content: content, PageNumber: 1, Index: 0}}
	}

	pageMarks := pagePattern.FindAllStringSubmatchIndex(content, -1)
	if len(pageMarks) > 0 {
		return c.chunkByPages(content, pageMarks, threshold)
	}
	return c.chunkByChars(content, threshold)
}

func (c *Chunker) chunkByPages(content string, marks [][]int, threshold int) []Chunk {
	var chunks []Chunk
	for i, m := range marks {
		start := m[0]
		end := len(content)
		if i+1 < len(marks) {
			end = marks[i+1][0]
		}
		pageContent := content[start:end]
		pageNum, _ := strconv.Atoi(content[m[2]:m[3]])

		if EstimateTokens(pageContent) > threshold {
			for _, sub := range splitBySections(pageContent, threshold) {
				chunks = append(chunks, Chunk{Content: sub, PageNumber: pageNum, Index: len(chunks)})
			}
			continue
		}
		chunks = append(chunks, Chunk{Content: pageContent, PageNumber: pageNum, Index: len(chunks)})
	}
	return chunks
}

func (c *Chunker) chunkByChars(content string, threshold int) []Chunk {
	chunkSize := threshold * charsPerToken
	if chunkSize < 1 {
		chunkSize = 1
	}
	var chunks []Chunk

	start := 0
	page := 1
	for start < len(content) {
		end := start + chunkSize
		if end > len(content) {
			end = len(content)
		}

		// Prefer breaking at a newline near the end of the slice.
		if end < len(content) {
			searchFrom := start + chunkSize - chunkOverlapChars
			if searchFrom < start {
				searchFrom = start
			}
			if nl := strings.LastIndex(content[searchFrom:end], "\n"); nl >= 0 {
				end = searchFrom + nl + 1
			}
		}

		chunks = append(chunks, Chunk{Content: content[start:end], PageNumber: page, Index: len(chunks)})

		if end >= len(content) {
			break
		}
		// Overlap must never move the cursor backwards. Windows smaller
		// than the overlap advance without one.
		next := end - chunkOverlapChars
		if next <= start {
			next = end
		}
		start = next
		page++
	}
	return chunks
}

// splitBySections breaks one oversized page apart at markdown headings so
// building and room headers stay attached to the rows beneath them.
func splitBySections(content string, maxTokens int) []string {
	headerLocs := sectionHeaderPattern.FindAllStringIndex(content, -1)
	if len(headerLocs) == 0 {
		return []string{content}
	}

	var sections []string
	prev := 0
	for _, loc := range headerLocs {
		if loc[0] > prev {
			sections = append(sections, content[prev:loc[0]])
		}
		prev = loc[0]
	}
	sections = append(sections, content[prev:])

	var chunks []string
	current := ""
	for _, sec := range sections {
		if strings.TrimSpace(sec) == "" {
			continue
		}
		if current != "" && EstimateTokens(current+sec) > maxTokens {
			chunks = append(chunks, current)
			current = sec
			continue
		}
		current += sec
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	if len(chunks) == 0 {
		return []string{content}
	}
	return chunks
}
