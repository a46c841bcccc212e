package domain

import (
	"fmt"
	"strings"
)

// OpKind distinguishes the two operations a plan can contain.
type OpKind int

const (
	// OpMove walks through a door into the adjacent room.
	OpMove OpKind = iota
	// OpEdit temporarily overwrites the current room's label. The oracle
	// reverts edits once the plan finishes executing.
	OpEdit
)

// Op is a single plan operation: either a door move or a label edit.
type Op struct {
	Kind  OpKind
	Door  Door  // valid when Kind == OpMove
	Label Label // valid when Kind == OpEdit
}

// Move returns a door-move operation.
func Move(d Door) Op {
	return Op{Kind: OpMove, Door: d}
}

// Edit returns a label-edit operation.
func Edit(l Label) Op {
	return Op{Kind: OpEdit, Label: l}
}

// Plan is an ordered operation sequence submitted to the oracle in one unit.
type Plan []Op

// MovePlan builds a pure-move plan from a path.
func MovePlan(path Path) Plan {
	plan := make(Plan, 0, len(path))
	for _, d := range path {
		plan = append(plan, Move(d))
	}
	return plan
}

// Append returns a new plan with the given operations appended.
func (p Plan) Append(ops ...Op) Plan {
	out := make(Plan, 0, len(p)+len(ops))
	out = append(out, p...)
	out = append(out, ops...)
	return out
}

// Moves counts the door-move operations in the plan.
func (p Plan) Moves() int {
	n := 0
	for _, op := range p {
		if op.Kind == OpMove {
			n++
		}
	}
	return n
}

// Edits counts the label-edit operations in the plan.
func (p Plan) Edits() int {
	n := 0
	for _, op := range p {
		if op.Kind == OpEdit {
			n++
		}
	}
	return n
}

// PureMove reports whether the plan contains no label edits. Only pure-move
// observations are folded into the candidate store; edit probes are parsed
// by their issuers.
func (p Plan) PureMove() bool {
	return p.Edits() == 0
}

// Path returns the door sequence of the plan's move operations.
func (p Plan) Path() Path {
	path := make(Path, 0, len(p))
	for _, op := range p {
		if op.Kind == OpMove {
			path = append(path, op.Door)
		}
	}
	return path
}

// String renders the plan in wire syntax: door digits with edits as
// bracketed labels, e.g. "012[3]45".
func (p Plan) String() string {
	var b strings.Builder
	for _, op := range p {
		switch op.Kind {
		case OpMove:
			b.WriteByte(byte('0' + op.Door))
		case OpEdit:
			b.WriteByte('[')
			b.WriteByte(byte('0' + op.Label))
			b.WriteByte(']')
		}
	}
	return b.String()
}

// ParsePlan parses wire syntax back into a plan.
func ParsePlan(s string) (Plan, error) {
	plan := make(Plan, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '5':
			plan = append(plan, Move(Door(c-'0')))
		case c == '[':
			if i+2 >= len(s) || s[i+2] != ']' {
				return nil, fmt.Errorf("plan %q: unterminated edit at position %d", s, i)
			}
			l := s[i+1]
			if l < '0' || l > '3' {
				return nil, fmt.Errorf("plan %q: invalid edit label %q", s, l)
			}
			plan = append(plan, Edit(Label(l-'0')))
			i += 2
		default:
			return nil, fmt.Errorf("plan %q: invalid character %q at position %d", s, c, i)
		}
	}
	return plan, nil
}

// Observation pairs a plan with the raw label sequence the oracle returned
// for it: the starting room's label followed by one entry per operation
// (arrival label for a move, write echo for an edit).
type Observation struct {
	Plan Plan
	Raw  []Label
}

// Split separates the raw sequence into arrival labels and edit echoes.
// Arrivals always holds one more entry than the plan has moves: the label
// seen at the start, then after each move. Splitting is purely positional;
// it fails with ErrMalformedResponse on a length mismatch or when an echo
// does not confirm the written value.
func (o Observation) Split() (arrivals, echoes []Label, err error) {
	want := 1 + len(o.Plan)
	if len(o.Raw) != want {
		return nil, nil, fmt.Errorf("%w: plan %q expects %d labels, got %d",
			ErrMalformedResponse, o.Plan, want, len(o.Raw))
	}
	arrivals = make([]Label, 0, 1+o.Plan.Moves())
	arrivals = append(arrivals, o.Raw[0])
	for i, op := range o.Plan {
		v := o.Raw[i+1]
		switch op.Kind {
		case OpMove:
			arrivals = append(arrivals, v)
		case OpEdit:
			if v != op.Label {
				return nil, nil, fmt.Errorf("%w: plan %q edit echo %d, wrote %d",
					ErrMalformedResponse, o.Plan, v, op.Label)
			}
			echoes = append(echoes, v)
		}
	}
	return arrivals, echoes, nil
}

// FinalLabel returns the last arrival label of the observation.
func (o Observation) FinalLabel() (Label, error) {
	arrivals, _, err := o.Split()
	if err != nil {
		return 0, err
	}
	return arrivals[len(arrivals)-1], nil
}

// ParseLabels parses a digit string ("0213") into labels. Used when reading
// observations back from the wire or the observation log.
func ParseLabels(s string) ([]Label, error) {
	out := make([]Label, 0, len(s))
	for i, c := range s {
		if c < '0' || c > '3' {
			return nil, fmt.Errorf("labels %q: invalid label %q at position %d", s, c, i)
		}
		out = append(out, Label(c-'0'))
	}
	return out, nil
}

// FormatLabels renders labels as a digit string.
func FormatLabels(labels []Label) string {
	var b strings.Builder
	b.Grow(len(labels))
	for _, l := range labels {
		b.WriteByte(byte('0' + l))
	}
	return b.String()
}
