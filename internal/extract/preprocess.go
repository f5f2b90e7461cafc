package extract

import (
	"regexp"
	"strings"
)

// PreprocessStats reports what the marker pass found, mostly for logging.
type PreprocessStats struct {
	OriginalLength  int
	ProcessedLength int
	RoomsFound      int
	BuildingsFound  int
	ACMIndicators   int
	NoAsbestosHits  int
}

// OCR output from register PDFs often arrives in vertical format, table
// columns stacked one per line. These patterns pick out the header lines
// that survive that flattening.
var (
	vertRoomPattern     = regexp.MustCompile(`B\d{3}\s*-\s*R\d{4,5}\s*-\s*[^-\n]+\s*-\s*[\d.]+\s*m2`)
	vertBuildingPattern = regexp.MustCompile(`B\d{3}\s*-\s*[A-Za-z][^-\n]+\s*-\s*\d{4}\s*-\s*[A-Za-z]+`)
)

// Preprocess injects structural markers into raw document text so the model
// can tell headers from row data after OCR has flattened the tables.
func Preprocess(content string) (string, PreprocessStats) {
	stats := PreprocessStats{
		OriginalLength: len(content),
		ACMIndicators:  strings.Count(content, "Asbestos-containing"),
		NoAsbestosHits: strings.Count(content, "No Asbestos"),
	}

	buildings := dedupeStrings(vertBuildingPattern.FindAllString(content, -1))
	rooms := dedupeStrings(vertRoomPattern.FindAllString(content, -1))
	stats.BuildingsFound = len(buildings)
	stats.RoomsFound = len(rooms)

	processed := content
	for _, b := range buildings {
		processed = strings.ReplaceAll(processed, b, "\n\n=== BUILDING: "+b+" ===\n"+b)
	}
	for _, r := range rooms {
		processed = strings.ReplaceAll(processed, r, "\n--- ROOM: "+r+" ---\n"+r)
	}

	processed = strings.ReplaceAll(processed,
		"Asbestos-containing\nmaterial",
		">>> ACM DETECTED: Asbestos-containing material <<<")
	processed = strings.ReplaceAll(processed,
		"Asbestos-containing material",
		">>> ACM DETECTED: Asbestos-containing material <<<")

	stats.ProcessedLength = len(processed)
	return processed, stats
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
