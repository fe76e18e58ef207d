package transform

import (
	"fmt"
	"time"
)

// Partition identifies one (year, month, day) storage subdivision.
type Partition struct {
	Year  int
	Month int
	Day   int
}

// PartitionFor derives the partition from a wall-clock date. Both stages
// take an injected clock, so a delayed run still addresses the then-current
// date; external scheduling owns that risk.
func PartitionFor(now time.Time) Partition {
	return Partition{
		Year:  now.Year(),
		Month: int(now.Month()),
		Day:   now.Day(),
	}
}

// Path renders the physical partition path with zero-padded components,
// e.g. "year=2025/month=03/day=07".
func (p Partition) Path() string {
	return fmt.Sprintf("year=%d/month=%02d/day=%02d", p.Year, p.Month, p.Day)
}
