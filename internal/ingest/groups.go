package ingest

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// buildSequenceGroups sorts ingested records by recording timestamp and
// greedily collects consecutive records whose timestamp falls within window
// of the running group's end. Records without a timestamp cannot participate
// and are left ungrouped. Device labels never split a group.
func buildSequenceGroups(records []FileRecord, window time.Duration) []SequenceGroup {
	var dated []FileRecord
	for _, rec := range records {
		if rec.Timestamp != nil {
			dated = append(dated, rec)
		}
	}
	if len(dated) == 0 {
		return nil
	}
	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].Timestamp.Before(*dated[j].Timestamp)
	})

	var groups []SequenceGroup
	current := newGroup(dated[0])
	for _, rec := range dated[1:] {
		if rec.Timestamp.Sub(current.EndTime) <= window {
			current.extend(rec)
			continue
		}
		groups = append(groups, current.finish())
		current = newGroup(rec)
	}
	groups = append(groups, current.finish())
	return groups
}

type groupBuilder struct {
	SequenceGroup
	devices map[string]struct{}
}

func newGroup(rec FileRecord) groupBuilder {
	g := groupBuilder{
		SequenceGroup: SequenceGroup{
			StartTime: *rec.Timestamp,
			EndTime:   *rec.Timestamp,
		},
		devices: make(map[string]struct{}),
	}
	g.extend(rec)
	return g
}

func (g *groupBuilder) extend(rec FileRecord) {
	if rec.Timestamp.After(g.EndTime) {
		g.EndTime = *rec.Timestamp
	}
	g.EvidenceIDs = append(g.EvidenceIDs, rec.EvidenceID)
	if rec.DeviceLabel != "" {
		g.devices[rec.DeviceLabel] = struct{}{}
	}
}

func (g *groupBuilder) finish() SequenceGroup {
	for device := range g.devices {
		g.DeviceLabels = append(g.DeviceLabels, device)
	}
	sort.Strings(g.DeviceLabels)
	g.Name = groupName(g.DeviceLabels, g.StartTime)
	return g.SequenceGroup
}

func groupName(devices []string, start time.Time) string {
	label := "UNKNOWN"
	if len(devices) > 0 {
		label = strings.Join(devices, "+")
	}
	return fmt.Sprintf("%s_%s", label, start.UTC().Format("20060102_1504"))
}
