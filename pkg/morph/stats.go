package morph

import "golang.org/x/net/html"

// MutationKind identifies what a reconciliation step did to the host tree.
type MutationKind uint8

const (
	MutationInsert        MutationKind = iota + 1 // Candidate item moved into the host
	MutationRemove                                // Host item removed
	MutationSetText                               // Text or comment data replaced
	MutationSetAttributes                         // Attributes synced with changes
	MutationApplyValue                            // Deferred control value applied
	MutationIslandMatched                         // Island kept; handed to its pipeline
)

// String returns the string representation of the MutationKind.
func (k MutationKind) String() string {
	switch k {
	case MutationInsert:
		return "Insert"
	case MutationRemove:
		return "Remove"
	case MutationSetText:
		return "SetText"
	case MutationSetAttributes:
		return "SetAttributes"
	case MutationApplyValue:
		return "ApplyValue"
	case MutationIslandMatched:
		return "IslandMatched"
	default:
		return "Unknown"
	}
}

// Mutation describes one applied step. Node is the host node affected (for
// inserts, the inserted node). Island is set when the step concerned a whole
// island.
type Mutation struct {
	Kind   MutationKind
	Node   *html.Node
	Island *Island

	// Count is the number of attributes changed by MutationSetAttributes.
	Count int
}

// Stats summarises a reconciliation pass.
type Stats struct {
	Inserted          int `json:"inserted"`          // Items inserted
	Removed           int `json:"removed"`           // Items removed
	TextUpdated       int `json:"textUpdated"`       // Text and comment nodes rewritten
	AttributesChanged int `json:"attributesChanged"` // Individual attributes added, changed or removed
	ValuesApplied     int `json:"valuesApplied"`     // Deferred values that changed a control
	IslandsMatched    int `json:"islandsMatched"`    // Islands handed back to their pipeline
	ElementsVisited   int `json:"elementsVisited"`   // Matched elements descended into
}

// Mutations returns the number of changes made to the host tree. Island
// matches are notifications, not changes, and are excluded.
func (s Stats) Mutations() int {
	return s.Inserted + s.Removed + s.TextUpdated + s.AttributesChanged + s.ValuesApplied
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Inserted += other.Inserted
	s.Removed += other.Removed
	s.TextUpdated += other.TextUpdated
	s.AttributesChanged += other.AttributesChanged
	s.ValuesApplied += other.ValuesApplied
	s.IslandsMatched += other.IslandsMatched
	s.ElementsVisited += other.ElementsVisited
}

func (s *Stats) record(m Mutation) {
	switch m.Kind {
	case MutationInsert:
		s.Inserted++
	case MutationRemove:
		s.Removed++
	case MutationSetText:
		s.TextUpdated++
	case MutationSetAttributes:
		s.AttributesChanged += m.Count
	case MutationApplyValue:
		s.ValuesApplied++
	case MutationIslandMatched:
		s.IslandsMatched++
	}
}
