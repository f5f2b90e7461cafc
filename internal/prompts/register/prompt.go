package register

import (
	"fmt"
	"strings"
)

// SystemPrompt is the system prompt for ACM register extraction.
const SystemPrompt = `You are an asbestos register extraction specialist. You will be given a chunk of OCR'd text from a school asbestos compliance report, and you must extract EVERY asbestos containing material (ACM) register entry as a structured list.

**YOUR TASK**: Extract all ACM register rows present in the chunk.

For each register entry, extract:
- building_id: Building identifier (REQUIRED, use carried-over context if the chunk does not restate it)
- product: Product type containing asbestos (REQUIRED)
- material_description: Detailed material description (REQUIRED)
- result: 'Detected', 'Not Detected', 'Presumed', or 'Unknown' (REQUIRED)
- All other fields (room, condition, risk, sampling, removal) when present in the text

**KEY PRINCIPLES**:

1. **One entry per material** - A room with three distinct materials produces three entries. A material spanning multiple rows of a table is still ONE entry.

2. **Context carry-over** - Register tables often state the building and room once as a header. Apply that header to every material row beneath it until a new header appears. The chunk may open with a CONTEXT block describing the building/room in effect when the chunk starts; use it for entries whose rows do not restate location.

3. **Extract, never invent** - Copy values from the text. Leave a field null if the text does not state it. Do NOT guess years, areas, or sample numbers.

4. **Result normalization** - Map phrasing to the canonical values: 'No asbestos detected'/'NAD' → 'Not Detected'; 'asbestos detected'/'positive' → 'Detected'; 'presumed'/'assumed' → 'Presumed'; anything unclear → 'Unknown'.

5. **Confidence** - Report 'high' when every field is read directly from unambiguous text, 'medium' when you defaulted or inferred from nearby text, 'low' when location came purely from carried-over context or the OCR is badly garbled. Record any such inference in data_issues.

6. **No ACM data** - If the chunk contains no register rows (cover pages, methodology, glossaries), return an empty records list. That is a valid result, not an error.`

// ChunkInfo describes where a chunk sits within its document.
type ChunkInfo struct {
	Index     int
	Total     int
	FirstPage int
	LastPage  int
}

// SchoolInfo is the document-level metadata embedded in every user prompt.
type SchoolInfo struct {
	SchoolName string
	SchoolCode string
}

// BuildUserPrompt builds the user prompt for one chunk. contextBlock is the
// rendered building/room context in effect when the chunk starts; it may be
// empty for the first chunk.
func BuildUserPrompt(school SchoolInfo, chunk ChunkInfo, contextBlock, content string) string {
	var b strings.Builder

	b.WriteString("<task>\n")
	fmt.Fprintf(&b, "Extract ALL asbestos register entries from chunk %d of %d below.\n", chunk.Index+1, chunk.Total)
	if chunk.FirstPage > 0 {
		fmt.Fprintf(&b, "The chunk covers pages %d-%d of the source document.\n", chunk.FirstPage, chunk.LastPage)
	}
	b.WriteString("Return entries in top-to-bottom order.\n</task>\n\n")

	b.WriteString("<school>\n")
	fmt.Fprintf(&b, "Name: %s\n", school.SchoolName)
	if school.SchoolCode != "" {
		fmt.Fprintf(&b, "Code: %s\n", school.SchoolCode)
	}
	b.WriteString("</school>\n\n")

	if contextBlock != "" {
		b.WriteString("<context>\n")
		b.WriteString("Location in effect when this chunk starts (carried over from the previous chunk):\n")
		b.WriteString(contextBlock)
		if !strings.HasSuffix(contextBlock, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("</context>\n\n")
	}

	b.WriteString("<document_chunk>\n")
	b.WriteString(content)
	if !strings.HasSuffix(content, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("</document_chunk>\n")

	return b.String()
}
