package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackzampolin/samp/internal/prompts/register"
)

// Register documents state the building and room once as a header and then
// list materials beneath it, so location context must be carried across lines
// and across chunk boundaries. Tracker holds that rolling context.
type Tracker struct {
	SchoolName string
	SchoolCode string

	BuildingID           string
	BuildingName         string
	BuildingYear         int
	BuildingConstruction string

	RoomID   string
	RoomName string
	RoomArea float64

	AreaType    string
	CurrentPage int
}

const defaultAreaType = "Interior"

var (
	// The first separator requires surrounding whitespace so that compound
	// room IDs like A1-R1 never match as building "A1" with name "R1".
	buildingPattern = regexp.MustCompile(`(?i)^#+\s*(?:Building[:\s]*)?([A-Za-z]\d+[A-Za-z]?)\s+[-–]\s+([^-–\n]+?)(?:\s*[-–]\s*(\d{4}))?(?:\s*[-–]\s*([^-–\n]+?))?$`)
	roomPattern     = regexp.MustCompile(`(?i)^#+\s*(?:Room[:\s]*)?([A-Z0-9]+-?R?\d+)\s*[-–]\s*([^-–\n]+?)(?:\s*[-–]\s*([\d.]+)\s*m²)?$`)
	areaTypePattern = regexp.MustCompile(`(?i)^#+\s*(?:Area\s*Type[:\s]*)?(Exterior|Interior|Grounds)\b`)
	schoolPattern   = regexp.MustCompile(`(?im)^#\s*([^-–#\n]+?)(?:\s*[-–]\s*(?:Asbestos|ACM|SAMP).*)?$`)
	pagePattern     = regexp.MustCompile(`(?i)(?:^|\n)[-—]+\s*Page\s+(\d+)\s*[-—]+`)
)

// NewTracker returns a tracker positioned at page 1 with the default area
// type. Most registers list interior spaces first and only mark exterior or
// grounds areas explicitly.
func NewTracker() *Tracker {
	return &Tracker{AreaType: defaultAreaType, CurrentPage: 1}
}

// SeekSchool scans a whole document for its title header and records the
// school name if found.
func (t *Tracker) SeekSchool(content string) {
	if m := schoolPattern.FindStringSubmatch(content); m != nil {
		t.SchoolName = strings.TrimSpace(m[1])
	}
}

// ObserveLine updates the tracker from a single line of document text.
// Building headers reset the room and area type because a new building
// always starts a fresh interior listing; room headers leave the building
// untouched.
func (t *Tracker) ObserveLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	if m := pagePattern.FindStringSubmatch(line); m != nil {
		if p, err := strconv.Atoi(m[1]); err == nil {
			t.CurrentPage = p
		}
	}

	if m := areaTypePattern.FindStringSubmatch(line); m != nil {
		t.AreaType = toTitle(m[1])
	}

	if m := buildingPattern.FindStringSubmatch(line); m != nil {
		t.BuildingID = strings.TrimSpace(m[1])
		t.BuildingName = strings.TrimSpace(m[2])
		t.BuildingYear = 0
		if m[3] != "" {
			if y, err := strconv.Atoi(m[3]); err == nil {
				t.BuildingYear = y
			}
		}
		t.BuildingConstruction = strings.TrimSpace(m[4])
		t.RoomID = ""
		t.RoomName = ""
		t.RoomArea = 0
		t.AreaType = defaultAreaType
		return
	}

	if m := roomPattern.FindStringSubmatch(line); m != nil {
		t.RoomID = strings.TrimSpace(m[1])
		t.RoomName = strings.TrimSpace(m[2])
		t.RoomArea = 0
		if m[3] != "" {
			if a, err := strconv.ParseFloat(m[3], 64); err == nil {
				t.RoomArea = a
			}
		}
	}
}

// Observe feeds every line of a chunk through the tracker so that the
// context at the end of the chunk is available for the next one.
func (t *Tracker) Observe(content string) {
	for _, line := range strings.Split(content, "\n") {
		t.ObserveLine(line)
	}
}

// Advance updates the tracker from extracted records, taking the location of
// the last record as the context in effect when the chunk ended. Header
// scanning catches markdown registers; this catches documents whose layout
// only the model could read.
func (t *Tracker) Advance(items []register.Item) {
	if len(items) == 0 {
		return
	}
	last := items[len(items)-1]
	if last.BuildingID != "" {
		t.BuildingID = last.BuildingID
		t.BuildingName = deref(last.BuildingName)
	}
	if last.RoomID != nil && *last.RoomID != "" {
		t.RoomID = *last.RoomID
		t.RoomName = deref(last.RoomName)
	}
	if last.PageNumber != nil && *last.PageNumber > 0 {
		t.CurrentPage = *last.PageNumber
	}
}

// Render produces the context block embedded in the prompt for the next
// chunk. Empty when nothing has been established yet.
func (t *Tracker) Render() string {
	var b strings.Builder
	if t.BuildingID != "" {
		fmt.Fprintf(&b, "Building: %s", t.BuildingID)
		if t.BuildingName != "" {
			fmt.Fprintf(&b, " (%s)", t.BuildingName)
		}
		b.WriteString("\n")
	}
	if t.RoomID != "" {
		fmt.Fprintf(&b, "Room: %s", t.RoomID)
		if t.RoomName != "" {
			fmt.Fprintf(&b, " (%s)", t.RoomName)
		}
		b.WriteString("\n")
	}
	if t.AreaType != "" && t.AreaType != defaultAreaType {
		fmt.Fprintf(&b, "Area type: %s\n", t.AreaType)
	}
	if b.Len() > 0 {
		fmt.Fprintf(&b, "Page: %d\n", t.CurrentPage)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func toTitle(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
