//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/inkpad/inkpad/internal/engine"
	"github.com/inkpad/inkpad/internal/operation"
)

var (
	eng      *engine.Engine
	onCommit js.Value
)

func main() {
	eng = engine.NewEngine(engine.DefaultOptions())
	eng.OnCommit = relayCommit

	inkpadEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	inkpadEngine.Set("loadDrawing", js.FuncOf(loadDrawing))
	inkpadEngine.Set("loadSampleDrawing", js.FuncOf(loadSampleDrawing))
	inkpadEngine.Set("newDrawing", js.FuncOf(newDrawing))
	inkpadEngine.Set("setTool", js.FuncOf(setTool))
	inkpadEngine.Set("tap", js.FuncOf(pointCommand(eng.Tap)))
	inkpadEngine.Set("dragStart", js.FuncOf(pointCommand(eng.DragStart)))
	inkpadEngine.Set("dragContinue", js.FuncOf(pointCommand(eng.DragContinue)))
	inkpadEngine.Set("dragEnd", js.FuncOf(pointCommand(eng.DragEnd)))
	inkpadEngine.Set("dragCancel", js.FuncOf(pointCommand(eng.DragCancel)))
	inkpadEngine.Set("undo", js.FuncOf(undo))
	inkpadEngine.Set("redo", js.FuncOf(redo))
	inkpadEngine.Set("setStrokeColor", js.FuncOf(colorCommand(eng.SetStrokeColor)))
	inkpadEngine.Set("setFillColor", js.FuncOf(colorCommand(eng.SetFillColor)))
	inkpadEngine.Set("setStrokeWidth", js.FuncOf(numberCommand(eng.SetStrokeWidth)))
	inkpadEngine.Set("setFontSize", js.FuncOf(numberCommand(eng.SetFontSize)))
	inkpadEngine.Set("addText", js.FuncOf(addText))
	inkpadEngine.Set("deleteSelection", js.FuncOf(deleteSelection))
	inkpadEngine.Set("applyRemote", js.FuncOf(applyRemote))
	inkpadEngine.Set("onCommit", js.FuncOf(setOnCommit))

	// --- Queries (frontend ← backend) ---
	inkpadEngine.Set("render", js.FuncOf(render))
	inkpadEngine.Set("hitTest", js.FuncOf(hitTest))
	inkpadEngine.Set("getSelection", js.FuncOf(getSelection))
	inkpadEngine.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	inkpadEngine.Set("getSamplePoints", js.FuncOf(getSamplePoints))
	inkpadEngine.Set("getState", js.FuncOf(getState))
	inkpadEngine.Set("getDocument", js.FuncOf(getDocument))
	inkpadEngine.Set("isDirty", js.FuncOf(isDirty))

	js.Global().Set("inkpadEngine", inkpadEngine)
	js.Global().Set("inkpadWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func result(err error) interface{} {
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func missing(what string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": "missing " + what})
}

// relayCommit hands each committed operation's record to the frontend,
// which forwards it to the collaboration socket.
func relayCommit(op operation.Operation) {
	if onCommit.Type() != js.TypeFunction {
		return
	}
	rec, err := op.Record()
	if err != nil {
		js.Global().Get("console").Call("error", "inkpad: encode operation: "+err.Error())
		return
	}
	data, err := json.Marshal(rec)
	if err != nil {
		js.Global().Get("console").Call("error", "inkpad: encode operation: "+err.Error())
		return
	}
	onCommit.Invoke(string(data))
}

// --- Command Handlers ---

func loadDrawing(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("drawing JSON")
	}
	return result(eng.LoadDrawing(args[0].String()))
}

func loadSampleDrawing(this js.Value, args []js.Value) interface{} {
	id := "drw_sample"
	if len(args) > 0 && args[0].Type() == js.TypeString {
		id = args[0].String()
	}
	eng.LoadSampleDrawing(id)
	return result(nil)
}

func newDrawing(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("drawing id and name")
	}
	var w, h float64
	if len(args) >= 4 {
		w, h = args[2].Float(), args[3].Float()
	}
	eng.NewDrawing(args[0].String(), args[1].String(), w, h)
	return result(nil)
}

func setTool(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("tool name")
	}
	return result(eng.SetTool(args[0].String()))
}

func pointCommand(f func(x, y float64)) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		if len(args) < 2 {
			return nil
		}
		f(args[0].Float(), args[1].Float())
		return nil
	}
}

func colorCommand(f func(string) error) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		color := ""
		if len(args) > 0 && args[0].Type() == js.TypeString {
			color = args[0].String()
		}
		return result(f(color))
	}
}

func numberCommand(f func(float64)) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		if len(args) < 1 {
			return nil
		}
		f(args[0].Float())
		return nil
	}
}

func undo(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Undo())
}

func redo(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Redo())
}

func addText(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return js.ValueOf("")
	}
	return js.ValueOf(eng.AddText(args[0].String(), args[1].Float(), args[2].Float()))
}

func deleteSelection(this js.Value, args []js.Value) interface{} {
	eng.DeleteSelection()
	return nil
}

func applyRemote(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("operation JSON")
	}
	return result(eng.ApplyRemote(args[0].String()))
}

func setOnCommit(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		onCommit = js.Undefined()
		return nil
	}
	onCommit = args[0]
	return nil
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Render())
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	return js.ValueOf(eng.HitTest(args[0].Float(), args[1].Float()))
}

func getSelection(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Selection())
}

func getSelectionBounds(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.SelectionBounds())
}

func getSamplePoints(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("[]")
	}
	return js.ValueOf(eng.SamplePoints(args[0].String()))
}

func getState(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.State())
}

func getDocument(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Document())
}

func isDirty(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.IsDirty())
}
