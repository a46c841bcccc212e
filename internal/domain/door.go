package domain

import "fmt"

// DoorCount is the fixed out-degree of every room.
const DoorCount = 6

// LabelCount is the size of the room label alphabet (2 bits).
const LabelCount = 4

// Door identifies one of the six labeled exits of a room.
type Door int

// Valid reports whether the door is in [0, DoorCount).
func (d Door) Valid() bool {
	return d >= 0 && d < DoorCount
}

// Label is the 2-bit value a room displays to probes. Labels are not unique
// per room; several physically distinct rooms may share one.
type Label int

// Valid reports whether the label is in [0, LabelCount).
func (l Label) Valid() bool {
	return l >= 0 && l < LabelCount
}

// Doors returns all door values in ascending order.
func Doors() [DoorCount]Door {
	return [DoorCount]Door{0, 1, 2, 3, 4, 5}
}

// FreeLabel returns a label distinct from every label in exclude.
// The alphabet has four values and callers exclude at most two, so a free
// value always exists for well-formed input; ErrNoFreeLabel indicates a
// broken precondition, not a recoverable condition.
func FreeLabel(exclude ...Label) (Label, error) {
	for l := Label(0); l < LabelCount; l++ {
		taken := false
		for _, e := range exclude {
			if l == e {
				taken = true
				break
			}
		}
		if !taken {
			return l, nil
		}
	}
	return 0, fmt.Errorf("%w: all %d labels excluded", ErrNoFreeLabel, LabelCount)
}
