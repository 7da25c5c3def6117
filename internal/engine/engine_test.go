package engine

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/inkpad/inkpad/internal/editing"
	"github.com/inkpad/inkpad/internal/geom"
	"github.com/inkpad/inkpad/internal/operation"
	"github.com/inkpad/inkpad/internal/render"
	"github.com/inkpad/inkpad/internal/shape"
)

// newSampleEngine loads the sample drawing and records every committed
// operation.
func newSampleEngine(t *testing.T) (*Engine, *[]operation.Operation) {
	t.Helper()
	e := NewEngine(DefaultOptions())
	e.LoadSampleDrawing("drw_test")
	var committed []operation.Operation
	e.OnCommit = func(op operation.Operation) {
		committed = append(committed, op)
	}
	return e, &committed
}

// The sample rect spans (100,100)-(300,220).
var rectCenter = geom.Pt(200, 160)

func decodeState(t *testing.T, e *Engine) State {
	t.Helper()
	var st State
	if err := json.Unmarshal([]byte(e.State()), &st); err != nil {
		t.Fatalf("state json: %v", err)
	}
	return st
}

func decodeCommands(t *testing.T, data string) []render.DrawCommand {
	t.Helper()
	var cmds []render.DrawCommand
	if err := json.Unmarshal([]byte(data), &cmds); err != nil {
		t.Fatalf("render json: %v", err)
	}
	return cmds
}

// ============================================================================
// Session Tests
// ============================================================================

func TestNewEngineDefaults(t *testing.T) {
	e := NewEngine(DefaultOptions())
	st := decodeState(t, e)

	if st.Tool != editing.EditToolName {
		t.Errorf("tool = %q, want edit", st.Tool)
	}
	if st.Mode != "idle" {
		t.Errorf("mode = %q, want idle", st.Mode)
	}
	if st.Stroke != "#000000" || st.Fill != "" {
		t.Errorf("paint = %q/%q, want black stroke and no fill", st.Stroke, st.Fill)
	}
	if st.Width != 3 || st.FontSize != shape.DefaultFontSize {
		t.Errorf("width/font = %v/%v", st.Width, st.FontSize)
	}
	if !st.Dirty {
		t.Error("new engine should be dirty")
	}
	if e.Drawing().Len() != 0 {
		t.Errorf("new drawing has %d shapes", e.Drawing().Len())
	}
}

func TestLoadDrawing(t *testing.T) {
	e := NewEngine(DefaultOptions())
	doc := `{"id":"drw_1","name":"Plan","width":800,"height":600,"shapes":[
		{"id":"shape_a","type":"RectShape","a":{"x":0,"y":0},"b":{"x":10,"y":10}}
	]}`
	if err := e.LoadDrawing(doc); err != nil {
		t.Fatalf("LoadDrawing: %v", err)
	}
	if e.Drawing().Len() != 1 || e.Drawing().Width != 800 {
		t.Errorf("loaded %d shapes, width %v", e.Drawing().Len(), e.Drawing().Width)
	}
	if got := e.HitTest(5, 5); got != "shape_a" {
		t.Errorf("HitTest = %q, want shape_a", got)
	}

	if err := e.LoadDrawing("{"); err == nil {
		t.Error("expected error for malformed JSON")
	}
	if e.Drawing().Len() != 1 {
		t.Error("failed load replaced the drawing")
	}
}

func TestNewDrawingKeepsToolAndSettings(t *testing.T) {
	e := NewEngine(DefaultOptions())
	if err := e.SetTool(editing.RectToolName); err != nil {
		t.Fatal(err)
	}
	if err := e.SetStrokeColor("red"); err != nil {
		t.Fatal(err)
	}
	e.NewDrawing("drw_2", "Blank", 640, 0)

	st := decodeState(t, e)
	if st.Tool != editing.RectToolName {
		t.Errorf("tool = %q, want rect", st.Tool)
	}
	if st.Stroke != "#ff0000" {
		t.Errorf("stroke = %q, want #ff0000", st.Stroke)
	}
	d := e.Drawing()
	if d.ID != "drw_2" || d.Width != 640 || d.Height != 720 {
		t.Errorf("drawing = %s %vx%v", d.ID, d.Width, d.Height)
	}
}

func TestSetToolUnknown(t *testing.T) {
	e := NewEngine(DefaultOptions())
	if err := e.SetTool("spray"); !errors.Is(err, editing.ErrUnknownTool) {
		t.Errorf("err = %v, want ErrUnknownTool", err)
	}
}

// ============================================================================
// Editing Tests
// ============================================================================

func TestTapSelectsAndDragMoves(t *testing.T) {
	e, committed := newSampleEngine(t)

	e.Tap(rectCenter.X, rectCenter.Y)
	id := e.Selection()
	if id == "" {
		t.Fatal("tap on the rect selected nothing")
	}
	if st := decodeState(t, e); st.Mode != "shapeSelected" {
		t.Errorf("mode = %q", st.Mode)
	}

	e.DragStart(200, 160)
	e.DragContinue(230, 170)
	if st := decodeState(t, e); st.Mode != "dragging" || st.Drag != "move" {
		t.Errorf("mid-drag state = %q/%q", st.Mode, st.Drag)
	}
	e.DragEnd(250, 180)

	if len(*committed) != 1 {
		t.Fatalf("committed %d operations, want 1", len(*committed))
	}
	ct, ok := (*committed)[0].(*operation.ChangeTransform)
	if !ok {
		t.Fatalf("committed %T, want *ChangeTransform", (*committed)[0])
	}
	if ct.ShapeID != id || !ct.Transform.Translation.ApproxEqual(geom.Pt(50, 20), 1e-9) {
		t.Errorf("transform = %+v", ct.Transform)
	}
	if got := e.HitTest(340, 230); got != id {
		t.Errorf("moved rect not hit at its new corner, got %q", got)
	}
}

func TestUndoReportsInverse(t *testing.T) {
	e, committed := newSampleEngine(t)
	e.Tap(rectCenter.X, rectCenter.Y)
	e.DragStart(200, 160)
	e.DragEnd(260, 160)

	if !e.Undo() {
		t.Fatal("Undo returned false")
	}
	if len(*committed) != 2 {
		t.Fatalf("committed %d operations, want 2", len(*committed))
	}
	inv := (*committed)[1].(*operation.ChangeTransform)
	if !inv.Transform.IsIdentity() {
		t.Errorf("undo relayed %+v, want identity transform", inv.Transform)
	}

	if !e.Redo() {
		t.Fatal("Redo returned false")
	}
	redo := (*committed)[2].(*operation.ChangeTransform)
	if redo.ID() == (*committed)[0].ID() {
		t.Error("redo relayed the original operation id")
	}
	if !redo.Transform.Translation.ApproxEqual(geom.Pt(60, 0), 1e-9) {
		t.Errorf("redo transform = %+v", redo.Transform)
	}
	if e.Redo() {
		t.Error("second Redo should do nothing")
	}
}

func TestUndoCreationDropsSelection(t *testing.T) {
	e, _ := newSampleEngine(t)
	id := e.AddText("hello", 50, 650)
	e.Tap(50, 650)
	if e.Selection() != id {
		t.Fatalf("selection = %q, want %q", e.Selection(), id)
	}
	e.Undo()
	if e.Selection() != "" {
		t.Errorf("selection %q survived undo of its creation", e.Selection())
	}
	if _, ok := e.Drawing().Shape(id); ok {
		t.Error("text still in the drawing")
	}
}

func TestCreateWithRectTool(t *testing.T) {
	e, committed := newSampleEngine(t)
	before := e.Drawing().Len()
	if err := e.SetTool(editing.RectToolName); err != nil {
		t.Fatal(err)
	}

	e.DragStart(900, 500)
	e.DragContinue(950, 540)
	cmds := decodeCommands(t, e.Render())
	if len(cmds) == 0 {
		t.Fatal("render with preview produced nothing")
	}
	e.DragEnd(1000, 560)

	if e.Drawing().Len() != before+1 {
		t.Errorf("drawing has %d shapes, want %d", e.Drawing().Len(), before+1)
	}
	if len(*committed) != 1 {
		t.Fatalf("committed %d operations", len(*committed))
	}
	if _, ok := (*committed)[0].(*operation.AddShape); !ok {
		t.Errorf("committed %T, want *AddShape", (*committed)[0])
	}
}

func TestDragCancelCommitsNothing(t *testing.T) {
	e, committed := newSampleEngine(t)
	e.Tap(rectCenter.X, rectCenter.Y)
	e.DragStart(200, 160)
	e.DragContinue(300, 300)
	e.DragCancel(300, 300)

	if len(*committed) != 0 {
		t.Errorf("cancel committed %d operations", len(*committed))
	}
	if e.HitTest(200, 160) != e.Selection() {
		t.Error("cancelled move did not restore the rect")
	}
}

func TestSettingsRestyleSelection(t *testing.T) {
	e, committed := newSampleEngine(t)
	e.Tap(rectCenter.X, rectCenter.Y)

	if err := e.SetFillColor("#00ff00"); err != nil {
		t.Fatal(err)
	}
	if len(*committed) != 1 {
		t.Fatalf("committed %d operations, want 1", len(*committed))
	}
	cs := (*committed)[0].(*operation.ChangeStyle)
	if cs.Style.FillColor == nil || cs.Style.FillColor.Hex() != "#00ff00" {
		t.Errorf("fill = %v", cs.Style.FillColor)
	}

	if err := e.SetFillColor("#00ff00"); err != nil {
		t.Fatal(err)
	}
	if len(*committed) != 1 {
		t.Error("unchanged fill committed another operation")
	}
	if err := e.SetStrokeColor("#zz"); !errors.Is(err, render.ErrInvalidColor) {
		t.Errorf("err = %v, want ErrInvalidColor", err)
	}
}

func TestDeleteSelection(t *testing.T) {
	e, committed := newSampleEngine(t)
	e.DeleteSelection()
	if len(*committed) != 0 {
		t.Fatal("delete without selection committed")
	}

	e.Tap(rectCenter.X, rectCenter.Y)
	id := e.Selection()
	e.DeleteSelection()
	if e.Selection() != "" {
		t.Error("selection kept after delete")
	}
	if _, ok := e.Drawing().Shape(id); ok {
		t.Error("shape still present")
	}
	if _, ok := (*committed)[0].(*operation.RemoveShape); !ok {
		t.Errorf("committed %T, want *RemoveShape", (*committed)[0])
	}

	e.Undo()
	if e.Drawing().Index(id) != 0 {
		t.Errorf("undo restored at index %d, want 0", e.Drawing().Index(id))
	}
}

// ============================================================================
// Remote Operation Tests
// ============================================================================

func TestApplyRemote(t *testing.T) {
	e, committed := newSampleEngine(t)
	e.Tap(rectCenter.X, rectCenter.Y)
	id := e.Selection()

	move, err := operation.NewChangeTransform(id,
		shape.IdentityTransform().Translated(geom.Pt(0, 300)),
		shape.IdentityTransform()).Record()
	if err != nil {
		t.Fatal(err)
	}
	data, _ := json.Marshal(move)
	if err := e.ApplyRemote(string(data)); err != nil {
		t.Fatalf("ApplyRemote: %v", err)
	}
	if len(*committed) != 0 {
		t.Error("remote operation was relayed back")
	}
	if e.HitTest(200, 460) != id {
		t.Error("remote move not applied")
	}
	if e.Selection() != id {
		t.Error("remote move dropped the selection")
	}

	s, _ := e.Drawing().Shape(id)
	del, err := operation.NewRemoveShape(s, 0).Record()
	if err != nil {
		t.Fatal(err)
	}
	data, _ = json.Marshal(del)
	if err := e.ApplyRemote(string(data)); err != nil {
		t.Fatalf("ApplyRemote delete: %v", err)
	}
	if e.Selection() != "" {
		t.Error("selection kept after remote delete")
	}
	if err := e.ApplyRemote(string(data)); !errors.Is(err, operation.ErrShapeNotFound) {
		t.Errorf("stale delete err = %v, want ErrShapeNotFound", err)
	}
}

func TestRemoteDeleteDuringDrag(t *testing.T) {
	e, committed := newSampleEngine(t)
	e.Tap(rectCenter.X, rectCenter.Y)
	id := e.Selection()
	e.DragStart(200, 160)
	e.DragContinue(230, 170)

	s, _ := e.Drawing().Shape(id)
	del, err := operation.NewRemoveShape(s, 0).Record()
	if err != nil {
		t.Fatal(err)
	}
	data, _ := json.Marshal(del)
	if err := e.ApplyRemote(string(data)); err != nil {
		t.Fatalf("ApplyRemote delete: %v", err)
	}
	if st := decodeState(t, e); st.Mode != "idle" || st.Drag != "" || st.Selection != "" {
		t.Errorf("state after remote delete = %+v", st)
	}

	e.DragContinue(240, 175)
	e.DragEnd(250, 180)
	if len(*committed) != 0 {
		t.Errorf("committed %d operations for a deleted shape", len(*committed))
	}
	if decodeState(t, e).CanUndo {
		t.Error("undo history gained an entry for a deleted shape")
	}
	if _, ok := e.Drawing().Shape(id); ok {
		t.Error("deleted shape came back")
	}
}

func TestApplyRemoteRejectsGarbage(t *testing.T) {
	e, _ := newSampleEngine(t)
	tests := []struct {
		name string
		data string
	}{
		{"not json", "nope"},
		{"unknown type", `{"id":"op_1","type":"shape.explode"}`},
		{"missing transform", `{"id":"op_1","type":"shape.transform","shapeId":"shape_x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := e.ApplyRemote(tt.data); err == nil {
				t.Error("expected error")
			}
		})
	}
}

// ============================================================================
// Query Tests
// ============================================================================

func TestRenderIncludesOverlay(t *testing.T) {
	e, _ := newSampleEngine(t)
	plain := decodeCommands(t, e.Render())
	if e.IsDirty() {
		t.Error("Render did not clear the dirty flag")
	}

	e.Tap(rectCenter.X, rectCenter.Y)
	if !e.IsDirty() {
		t.Error("selection did not mark the engine dirty")
	}
	selected := decodeCommands(t, e.Render())
	if len(selected) <= len(plain) {
		t.Fatalf("selected render has %d commands, plain %d", len(selected), len(plain))
	}

	controls := 0
	for _, c := range selected[len(plain):] {
		if strings.HasPrefix(c.ObjectID, "overlay:") {
			controls++
		}
	}
	if controls != 3 {
		t.Errorf("found %d overlay controls, want 3", controls)
	}
}

func TestSelectionBounds(t *testing.T) {
	e, _ := newSampleEngine(t)
	if got := e.SelectionBounds(); !strings.Contains(got, `"width":0`) {
		t.Errorf("empty selection bounds = %s", got)
	}

	e.Tap(rectCenter.X, rectCenter.Y)
	var r geom.Rect
	if err := json.Unmarshal([]byte(e.SelectionBounds()), &r); err != nil {
		t.Fatal(err)
	}
	if !r.Contains(geom.Pt(100, 100)) || !r.Contains(geom.Pt(300, 220)) {
		t.Errorf("bounds %+v miss the rect corners", r)
	}
}

func TestSamplePoints(t *testing.T) {
	e, _ := newSampleEngine(t)
	e.Tap(480, 200) // ellipse, 160 wide
	id := e.Selection()
	if id == "" {
		t.Fatal("ellipse not selected")
	}

	var pts []geom.Point
	if err := json.Unmarshal([]byte(e.SamplePoints(id)), &pts); err != nil {
		t.Fatal(err)
	}
	if len(pts) != 24 {
		t.Errorf("got %d samples, want 24", len(pts))
	}
	if got := e.SamplePoints("shape_missing"); got != "[]" {
		t.Errorf("missing shape samples = %s", got)
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	e, _ := newSampleEngine(t)
	doc := e.Document()

	other := NewEngine(DefaultOptions())
	if err := other.LoadDrawing(doc); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if other.Drawing().Len() != e.Drawing().Len() {
		t.Errorf("reloaded %d shapes, want %d", other.Drawing().Len(), e.Drawing().Len())
	}
}
