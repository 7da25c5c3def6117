// Package operation records completed edits as reversible operations and
// keeps the undo/redo stacks.
package operation

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/inkpad/inkpad/internal/drawing"
	"github.com/inkpad/inkpad/internal/shape"
	"github.com/inkpad/inkpad/internal/typeid"
)

// Record type tags.
const (
	TypeTransform = "shape.transform"
	TypeCreate    = "shape.create"
	TypeDelete    = "shape.delete"
	TypeStyle     = "shape.style"
)

var (
	ErrUnknownOperation = errors.New("unknown operation type")
	ErrInvalidRecord    = errors.New("invalid operation record")
	ErrShapeNotFound    = errors.New("shape not found")
	ErrShapeExists      = errors.New("shape already exists")
)

// Operation is a reversible change to a drawing. Apply and Revert on a
// missing shape do nothing.
type Operation interface {
	ID() string
	Apply(d *drawing.Drawing)
	Revert(d *drawing.Drawing)
	// Inverse returns an operation whose Apply is this one's Revert.
	Inverse() Operation
	Record() (Record, error)
}

// Record is the wire form of an operation.
type Record struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	ClientSeq int64  `json:"clientSeq,omitempty"`
	ShapeID   string `json:"shapeId,omitempty"`

	// For shape.transform
	Transform *shape.Transform `json:"transform,omitempty"`
	Previous  *shape.Transform `json:"previous,omitempty"`

	// For shape.create / shape.delete
	Shape json.RawMessage `json:"shape,omitempty"`
	Index *int            `json:"index,omitempty"`

	// For shape.style
	Style         *shape.Style `json:"style,omitempty"`
	PreviousStyle *shape.Style `json:"previousStyle,omitempty"`
}

func newRecord(id, typ, shapeID string) Record {
	return Record{ID: id, Type: typ, Timestamp: time.Now().UnixMilli(), ShapeID: shapeID}
}

// --- ChangeTransform ---

// ChangeTransform sets a shape's transform, remembering the original.
type ChangeTransform struct {
	id        string
	ShapeID   string
	Transform shape.Transform
	Original  shape.Transform
}

func NewChangeTransform(shapeID string, t, original shape.Transform) *ChangeTransform {
	return &ChangeTransform{id: typeid.NewOpID(), ShapeID: shapeID, Transform: t, Original: original}
}

func (o *ChangeTransform) ID() string { return o.id }

func (o *ChangeTransform) Apply(d *drawing.Drawing)  { setTransform(d, o.ShapeID, o.Transform) }
func (o *ChangeTransform) Revert(d *drawing.Drawing) { setTransform(d, o.ShapeID, o.Original) }

func (o *ChangeTransform) Inverse() Operation {
	return NewChangeTransform(o.ShapeID, o.Original, o.Transform)
}

func (o *ChangeTransform) Record() (Record, error) {
	r := newRecord(o.id, TypeTransform, o.ShapeID)
	t, prev := o.Transform, o.Original
	r.Transform, r.Previous = &t, &prev
	return r, nil
}

func setTransform(d *drawing.Drawing, id string, t shape.Transform) {
	s, ok := d.Shape(id)
	if !ok {
		return
	}
	if tr, ok := s.(shape.Transformable); ok {
		tr.SetTransform(t)
	}
}

// --- ChangeStyle ---

// ChangeStyle replaces a shape's paint.
type ChangeStyle struct {
	id       string
	ShapeID  string
	Style    shape.Style
	Original shape.Style
}

func NewChangeStyle(shapeID string, style, original shape.Style) *ChangeStyle {
	return &ChangeStyle{id: typeid.NewOpID(), ShapeID: shapeID, Style: style.Clone(), Original: original.Clone()}
}

func (o *ChangeStyle) ID() string { return o.id }

func (o *ChangeStyle) Apply(d *drawing.Drawing)  { setStyle(d, o.ShapeID, o.Style) }
func (o *ChangeStyle) Revert(d *drawing.Drawing) { setStyle(d, o.ShapeID, o.Original) }

func (o *ChangeStyle) Inverse() Operation {
	return NewChangeStyle(o.ShapeID, o.Original, o.Style)
}

func (o *ChangeStyle) Record() (Record, error) {
	r := newRecord(o.id, TypeStyle, o.ShapeID)
	st, prev := o.Style.Clone(), o.Original.Clone()
	r.Style, r.PreviousStyle = &st, &prev
	return r, nil
}

func setStyle(d *drawing.Drawing, id string, st shape.Style) {
	s, ok := d.Shape(id)
	if !ok {
		return
	}
	if styled, ok := s.(shape.Styled); ok {
		styled.SetStyle(st)
	}
}

// --- AddShape / RemoveShape ---

// AddShape inserts a shape at Index; a negative Index puts it on top.
type AddShape struct {
	id    string
	Shape shape.Shape
	Index int
}

func NewAddShape(s shape.Shape, index int) *AddShape {
	return &AddShape{id: typeid.NewOpID(), Shape: s, Index: index}
}

func (o *AddShape) ID() string { return o.id }

func (o *AddShape) Apply(d *drawing.Drawing) {
	if d.Index(o.Shape.ID()) >= 0 {
		return
	}
	i := o.Index
	if i < 0 {
		i = d.Len()
	}
	d.Insert(i, o.Shape)
}

func (o *AddShape) Revert(d *drawing.Drawing) {
	d.Remove(o.Shape.ID())
}

func (o *AddShape) Inverse() Operation {
	return NewRemoveShape(o.Shape, o.Index)
}

func (o *AddShape) Record() (Record, error) {
	return shapeRecord(o.id, TypeCreate, o.Shape, o.Index)
}

// RemoveShape deletes a shape; reverting puts it back at Index.
type RemoveShape struct {
	id    string
	Shape shape.Shape
	Index int
}

func NewRemoveShape(s shape.Shape, index int) *RemoveShape {
	return &RemoveShape{id: typeid.NewOpID(), Shape: s, Index: index}
}

func (o *RemoveShape) ID() string { return o.id }

func (o *RemoveShape) Apply(d *drawing.Drawing) {
	if removed, i, ok := d.Remove(o.Shape.ID()); ok {
		o.Shape, o.Index = removed, i
	}
}

func (o *RemoveShape) Revert(d *drawing.Drawing) {
	if d.Index(o.Shape.ID()) >= 0 {
		return
	}
	i := o.Index
	if i < 0 {
		i = d.Len()
	}
	d.Insert(i, o.Shape)
}

func (o *RemoveShape) Inverse() Operation {
	return NewAddShape(o.Shape, o.Index)
}

func (o *RemoveShape) Record() (Record, error) {
	return shapeRecord(o.id, TypeDelete, o.Shape, o.Index)
}

func shapeRecord(id, typ string, s shape.Shape, index int) (Record, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return Record{}, fmt.Errorf("encode %s record: %w", typ, err)
	}
	r := newRecord(id, typ, s.ID())
	r.Shape = data
	r.Index = &index
	return r, nil
}

// --- Wire decoding ---

// FromRecord rebuilds an operation from its wire form, keeping its id.
func FromRecord(r Record) (Operation, error) {
	switch r.Type {
	case TypeTransform:
		if r.ShapeID == "" || r.Transform == nil {
			return nil, fmt.Errorf("decode %s: missing shape or transform: %w", r.Type, ErrInvalidRecord)
		}
		prev := shape.IdentityTransform()
		if r.Previous != nil {
			prev = *r.Previous
		}
		return &ChangeTransform{id: r.ID, ShapeID: r.ShapeID, Transform: *r.Transform, Original: prev}, nil

	case TypeStyle:
		if r.ShapeID == "" || r.Style == nil {
			return nil, fmt.Errorf("decode %s: missing shape or style: %w", r.Type, ErrInvalidRecord)
		}
		prev := shape.Style{}
		if r.PreviousStyle != nil {
			prev = *r.PreviousStyle
		}
		return &ChangeStyle{id: r.ID, ShapeID: r.ShapeID, Style: *r.Style, Original: prev}, nil

	case TypeCreate, TypeDelete:
		if len(r.Shape) == 0 {
			return nil, fmt.Errorf("decode %s: missing shape: %w", r.Type, ErrInvalidRecord)
		}
		s, err := shape.Decode(r.Shape)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", r.Type, err)
		}
		index := -1
		if r.Index != nil {
			index = *r.Index
		}
		if r.Type == TypeCreate {
			return &AddShape{id: r.ID, Shape: s, Index: index}, nil
		}
		return &RemoveShape{id: r.ID, Shape: s, Index: index}, nil

	default:
		return nil, fmt.Errorf("decode %q: %w", r.Type, ErrUnknownOperation)
	}
}

// Validate reports whether op can take effect on d. Apply itself never
// fails; collaborators use this to reject stale operations.
func Validate(d *drawing.Drawing, op Operation) error {
	var id string
	mustExist := true
	switch o := op.(type) {
	case *ChangeTransform:
		id = o.ShapeID
	case *ChangeStyle:
		id = o.ShapeID
	case *RemoveShape:
		id = o.Shape.ID()
	case *AddShape:
		id, mustExist = o.Shape.ID(), false
	default:
		return fmt.Errorf("validate %T: %w", op, ErrUnknownOperation)
	}

	exists := d.Index(id) >= 0
	switch {
	case mustExist && !exists:
		return fmt.Errorf("validate %s: %w", id, ErrShapeNotFound)
	case !mustExist && exists:
		return fmt.Errorf("validate %s: %w", id, ErrShapeExists)
	}
	return nil
}
