package input

import "context"

// Event is one discrete button edge from the input device.
type Event struct {
	ScanCode uint16
	Pressed  bool
}

// Source is a blocking iterator of button events. The session loop is
// inherently sequential, so a blocking read contract is preferred over
// callback dispatch.
type Source interface {
	// Next blocks until an event arrives or ctx is canceled.
	Next(ctx context.Context) (Event, error)
	Close() error
}

// TriggerFilter selects the press edges of the configured trigger scan
// codes; everything else is ignored.
type TriggerFilter struct {
	codes map[uint16]struct{}
}

func NewTriggerFilter(codes []uint16) *TriggerFilter {
	m := make(map[uint16]struct{}, len(codes))
	for _, c := range codes {
		m[c] = struct{}{}
	}
	return &TriggerFilter{codes: m}
}

func (f *TriggerFilter) Match(ev Event) bool {
	if !ev.Pressed {
		return false
	}
	_, ok := f.codes[ev.ScanCode]
	return ok
}
