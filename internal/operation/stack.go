package operation

import "github.com/inkpad/inkpad/internal/drawing"

// Event says how an operation reached the drawing.
type Event int

const (
	Applied Event = iota
	Undone
	Redone
)

func (e Event) String() string {
	switch e {
	case Applied:
		return "applied"
	case Undone:
		return "undone"
	case Redone:
		return "redone"
	default:
		return "unknown"
	}
}

// Listener is told about every change the stack makes.
type Listener func(op Operation, e Event)

// Stack applies operations to one drawing and keeps undo/redo history.
// One completed gesture is one operation.
type Stack struct {
	drawing   *drawing.Drawing
	undo      []Operation
	redo      []Operation
	listeners []Listener
}

func NewStack(d *drawing.Drawing) *Stack {
	return &Stack{drawing: d}
}

// Drawing returns the drawing the stack edits.
func (s *Stack) Drawing() *drawing.Drawing { return s.drawing }

// Subscribe registers l for every future change.
func (s *Stack) Subscribe(l Listener) {
	s.listeners = append(s.listeners, l)
}

// Apply applies op, pushes it for undo and clears the redo history.
func (s *Stack) Apply(op Operation) {
	op.Apply(s.drawing)
	s.undo = append(s.undo, op)
	s.redo = nil
	s.notify(op, Applied)
}

// Undo reverts the most recent operation. It reports false when there is
// nothing to undo.
func (s *Stack) Undo() bool {
	if len(s.undo) == 0 {
		return false
	}
	op := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	op.Revert(s.drawing)
	s.redo = append(s.redo, op)
	s.notify(op, Undone)
	return true
}

// Redo re-applies the most recently undone operation.
func (s *Stack) Redo() bool {
	if len(s.redo) == 0 {
		return false
	}
	op := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	op.Apply(s.drawing)
	s.undo = append(s.undo, op)
	s.notify(op, Redone)
	return true
}

func (s *Stack) CanUndo() bool { return len(s.undo) > 0 }
func (s *Stack) CanRedo() bool { return len(s.redo) > 0 }

// Len returns the number of undoable operations.
func (s *Stack) Len() int { return len(s.undo) }

// Clear drops all history.
func (s *Stack) Clear() {
	s.undo, s.redo = nil, nil
}

func (s *Stack) notify(op Operation, e Event) {
	for _, l := range s.listeners {
		l(op, e)
	}
}
