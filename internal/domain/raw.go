package domain

// RawObject is one decoded raw-zone object together with the field sets
// the advisory schema validator inspects.
type RawObject struct {
	Key           string
	Snapshot      Snapshot
	Fields        []string
	ChannelFields []string
	VideoFields   []string
}
