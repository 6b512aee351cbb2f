package ingest

import (
	"testing"
	"time"
)

func datedRecord(id, device string, ts time.Time) FileRecord {
	return FileRecord{
		EvidenceID:  id,
		DeviceLabel: device,
		Timestamp:   &ts,
		Status:      StatusIngested,
	}
}

func TestBuildSequenceGroupsWithinWindow(t *testing.T) {
	base := time.Date(2025, 11, 29, 22, 50, 0, 0, time.UTC)
	records := []FileRecord{
		datedRecord("ev-1", "BWL001", base),
		datedRecord("ev-2", "BWL001", base.Add(5*time.Minute)),
	}

	groups := buildSequenceGroups(records, 30*time.Minute)
	if len(groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(groups))
	}
	if len(groups[0].EvidenceIDs) != 2 {
		t.Fatalf("members = %d, want 2", len(groups[0].EvidenceIDs))
	}
	if groups[0].Name != "BWL001_20251129_2250" {
		t.Fatalf("group name = %q", groups[0].Name)
	}
}

func TestBuildSequenceGroupsSplitsOutsideWindow(t *testing.T) {
	base := time.Date(2025, 11, 29, 10, 0, 0, 0, time.UTC)
	records := []FileRecord{
		datedRecord("ev-1", "BWL001", base),
		datedRecord("ev-2", "BWL001", base.Add(31*time.Minute)),
	}

	groups := buildSequenceGroups(records, 30*time.Minute)
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}
}

func TestBuildSequenceGroupsWindowMeasuredFromGroupEnd(t *testing.T) {
	// Each file is 20 minutes after the previous; the chain spans more
	// than the window but every step is within it.
	base := time.Date(2025, 11, 29, 8, 0, 0, 0, time.UTC)
	records := []FileRecord{
		datedRecord("ev-1", "BWL001", base),
		datedRecord("ev-2", "BWL001", base.Add(20*time.Minute)),
		datedRecord("ev-3", "BWL002", base.Add(40*time.Minute)),
	}

	groups := buildSequenceGroups(records, 30*time.Minute)
	if len(groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(groups))
	}
	if got := groups[0].DeviceLabels; len(got) != 2 || got[0] != "BWL001" || got[1] != "BWL002" {
		t.Fatalf("device labels = %v", got)
	}
}

func TestBuildSequenceGroupsIgnoresDeviceLabels(t *testing.T) {
	base := time.Date(2025, 11, 29, 9, 0, 0, 0, time.UTC)
	records := []FileRecord{
		datedRecord("ev-1", "BWL001", base),
		datedRecord("ev-2", "BWL999", base.Add(time.Minute)),
	}

	groups := buildSequenceGroups(records, 30*time.Minute)
	if len(groups) != 1 {
		t.Fatalf("different devices in the same window must share a group, got %d groups", len(groups))
	}
}

func TestBuildSequenceGroupsSkipsUndated(t *testing.T) {
	base := time.Date(2025, 11, 29, 9, 0, 0, 0, time.UTC)
	records := []FileRecord{
		datedRecord("ev-1", "BWL001", base),
		{EvidenceID: "ev-2", Status: StatusIngested},
	}

	groups := buildSequenceGroups(records, 30*time.Minute)
	if len(groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(groups))
	}
	if len(groups[0].EvidenceIDs) != 1 {
		t.Fatalf("undated record was grouped: %v", groups[0].EvidenceIDs)
	}
}

func TestBuildSequenceGroupsEmpty(t *testing.T) {
	if groups := buildSequenceGroups(nil, 30*time.Minute); groups != nil {
		t.Fatalf("groups = %v, want nil", groups)
	}
}
