package transform

import "sort"

// Expected field sets for an ingested snapshot. Validation is advisory
// only: mismatches are reported as warnings and never block the run.

var expectedSnapshotFields = []string{"channel_info", "videos", "analysis"}

var expectedChannelFields = []string{
	"channel_id", "title", "description", "published_at",
	"view_count", "subscriber_count", "video_count", "playlist_id",
}

var expectedVideoFields = []string{
	"video_id", "title", "description", "published_at",
	"view_count", "like_count", "comment_count", "duration", "channel_id",
}

// SchemaReport lists the two-way set difference between an ingested
// record's fields and the expected schema.
type SchemaReport struct {
	Missing []string
	Extra   []string
}

// Clean reports whether actual and expected field sets match exactly.
func (r SchemaReport) Clean() bool {
	return len(r.Missing) == 0 && len(r.Extra) == 0
}

// ValidateSchema diffs an actual field set against an expected one.
func ValidateSchema(actual []string, expected []string) SchemaReport {
	actualSet := toSet(actual)
	expectedSet := toSet(expected)

	var report SchemaReport
	for f := range expectedSet {
		if _, ok := actualSet[f]; !ok {
			report.Missing = append(report.Missing, f)
		}
	}
	for f := range actualSet {
		if _, ok := expectedSet[f]; !ok {
			report.Extra = append(report.Extra, f)
		}
	}
	sort.Strings(report.Missing)
	sort.Strings(report.Extra)
	return report
}

// ValidateSnapshotFields checks a raw object's top-level keys.
func ValidateSnapshotFields(actual []string) SchemaReport {
	return ValidateSchema(actual, expectedSnapshotFields)
}

// ValidateChannelFields checks the channel_info keys.
func ValidateChannelFields(actual []string) SchemaReport {
	return ValidateSchema(actual, expectedChannelFields)
}

// ValidateVideoFields checks a video record's keys.
func ValidateVideoFields(actual []string) SchemaReport {
	return ValidateSchema(actual, expectedVideoFields)
}

func toSet(fields []string) map[string]struct{} {
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
