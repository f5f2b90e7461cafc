package extract

import (
	"strings"
	"testing"

	"github.com/jackzampolin/samp/internal/prompts/register"
)

func TestTrackerBuildingHeaderResetsRoom(t *testing.T) {
	trk := NewTracker()
	trk.ObserveLine("## A1 - Main Building - 1965 - Brick")
	trk.ObserveLine("### A1-R1 - Classroom - 54.2 m²")

	if trk.BuildingID != "A1" || trk.BuildingName != "Main Building" {
		t.Fatalf("building not tracked: %+v", trk)
	}
	if trk.BuildingYear != 1965 || trk.BuildingConstruction != "Brick" {
		t.Fatalf("building detail not tracked: %+v", trk)
	}
	if trk.RoomID != "A1-R1" || trk.RoomName != "Classroom" || trk.RoomArea != 54.2 {
		t.Fatalf("room not tracked: %+v", trk)
	}

	trk.ObserveLine("## Exterior")
	if trk.AreaType != "Exterior" {
		t.Fatalf("area type = %q, want Exterior", trk.AreaType)
	}

	trk.ObserveLine("## B2 - Science Wing")
	if trk.BuildingID != "B2" {
		t.Fatalf("building not updated: %+v", trk)
	}
	if trk.RoomID != "" || trk.RoomName != "" || trk.RoomArea != 0 {
		t.Fatalf("room context should reset on new building: %+v", trk)
	}
	if trk.AreaType != "Interior" {
		t.Fatalf("area type should reset to Interior, got %q", trk.AreaType)
	}
	if trk.BuildingYear != 0 {
		t.Fatalf("building year should clear when header omits it, got %d", trk.BuildingYear)
	}
}

func TestTrackerRoomHeaderKeepsBuilding(t *testing.T) {
	trk := NewTracker()
	trk.Observe("## A1 - Main Building\n### A1-R1 - Classroom\n### A1-R2 - Storeroom - 6.5 m²")

	if trk.BuildingID != "A1" || trk.BuildingName != "Main Building" {
		t.Fatalf("building lost: %+v", trk)
	}
	if trk.RoomID != "A1-R2" || trk.RoomArea != 6.5 {
		t.Fatalf("room not updated: %+v", trk)
	}
}

func TestTrackerCompoundRoomIDNotBuilding(t *testing.T) {
	trk := NewTracker()
	trk.ObserveLine("### A1-R1 - Classroom")
	if trk.BuildingID != "" {
		t.Fatalf("room header should not set building: %+v", trk)
	}
	if trk.RoomID != "A1-R1" || trk.RoomName != "Classroom" {
		t.Fatalf("room not tracked: %+v", trk)
	}
}

func TestTrackerPageMarkers(t *testing.T) {
	trk := NewTracker()
	if trk.CurrentPage != 1 {
		t.Fatalf("initial page = %d, want 1", trk.CurrentPage)
	}
	trk.ObserveLine("----- Page 7 -----")
	if trk.CurrentPage != 7 {
		t.Fatalf("page = %d, want 7", trk.CurrentPage)
	}
}

func TestTrackerSeekSchool(t *testing.T) {
	trk := NewTracker()
	trk.SeekSchool("# Northside Primary - Asbestos Register 2025\n\nsome text")
	if trk.SchoolName != "Northside Primary" {
		t.Fatalf("school = %q", trk.SchoolName)
	}
}

func TestTrackerAdvanceFromRecords(t *testing.T) {
	trk := NewTracker()
	roomID := "B2-R9"
	roomName := "Lab"
	page := 12
	trk.Advance([]register.Item{
		{BuildingID: "A1"},
		{BuildingID: "B2", RoomID: &roomID, RoomName: &roomName, PageNumber: &page},
	})
	if trk.BuildingID != "B2" || trk.RoomID != "B2-R9" || trk.CurrentPage != 12 {
		t.Fatalf("advance did not take last record: %+v", trk)
	}

	// No records leaves context untouched.
	trk.Advance(nil)
	if trk.BuildingID != "B2" {
		t.Fatalf("empty advance should not reset context")
	}
}

func TestTrackerRender(t *testing.T) {
	trk := NewTracker()
	if trk.Render() != "" {
		t.Fatalf("empty tracker should render empty, got %q", trk.Render())
	}

	trk.ObserveLine("## A1 - Main Building")
	trk.ObserveLine("### A1-R1 - Classroom")
	out := trk.Render()
	for _, want := range []string{"Building: A1 (Main Building)", "Room: A1-R1 (Classroom)", "Page: 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q in:\n%s", want, out)
		}
	}
}
