package render

import (
	"encoding/json"

	"github.com/inkpad/inkpad/internal/geom"
)

// DrawCommand is a single drawing operation for the host to execute on a
// Canvas2D context. Geometry is already in device space.
type DrawCommand struct {
	Op          string      `json:"op"`                    // "path" or "text"
	ObjectID    string      `json:"objectId,omitempty"`    // For hit correlation
	Path        *geom.Path  `json:"path,omitempty"`        // Path data for "path" ops
	Fill        string      `json:"fill,omitempty"`        // Fill color
	Stroke      string      `json:"stroke,omitempty"`      // Stroke color
	StrokeWidth float64     `json:"strokeWidth,omitempty"` // Stroke width
	LineDash    []float64   `json:"lineDash,omitempty"`
	DashPhase   float64     `json:"dashPhase,omitempty"`
	Text        string      `json:"text,omitempty"`
	At          *geom.Point `json:"at,omitempty"` // Text centre
	FontSize    float64     `json:"fontSize,omitempty"`
	Rotation    float64     `json:"rotation,omitempty"` // Text rotation in radians
}

// Recorder is a Context that records draw commands in painter's order.
type Recorder struct {
	StateStack
	objectID string
	commands []DrawCommand
}

func NewRecorder() *Recorder {
	return &Recorder{StateStack: NewStateStack()}
}

// SetObjectID tags subsequent commands with the id of the shape being
// painted. An empty id marks editor chrome.
func (r *Recorder) SetObjectID(id string) {
	r.objectID = id
}

func (r *Recorder) FillPath() {
	p := r.TakePath()
	if p.IsEmpty() {
		return
	}
	r.commands = append(r.commands, DrawCommand{
		Op:       "path",
		ObjectID: r.objectID,
		Path:     &p,
		Fill:     r.cur.FillColor.Hex(),
	})
}

func (r *Recorder) StrokePath() {
	p := r.TakePath()
	if p.IsEmpty() {
		return
	}
	scale := r.cur.CTM.ScaleFactor()
	cmd := DrawCommand{
		Op:          "path",
		ObjectID:    r.objectID,
		Path:        &p,
		Stroke:      r.cur.StrokeColor.Hex(),
		StrokeWidth: r.cur.LineWidth * scale,
		DashPhase:   r.cur.DashPhase * scale,
	}
	for _, l := range r.cur.Dash {
		cmd.LineDash = append(cmd.LineDash, l*scale)
	}
	r.commands = append(r.commands, cmd)
}

func (r *Recorder) ShowText(text string, at geom.Point, size float64) {
	if text == "" {
		return
	}
	m := r.cur.CTM
	center := m.TransformPoint(at)
	axis := m.TransformPoint(at.Add(geom.Pt(1, 0))).Sub(center)
	r.commands = append(r.commands, DrawCommand{
		Op:       "text",
		ObjectID: r.objectID,
		Fill:     r.cur.FillColor.Hex(),
		Text:     text,
		At:       &center,
		FontSize: size * m.ScaleFactor(),
		Rotation: axis.Angle(),
	})
}

// Commands returns the recorded commands.
func (r *Recorder) Commands() []DrawCommand {
	return r.commands
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	if commands == nil {
		commands = []DrawCommand{}
	}
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}
