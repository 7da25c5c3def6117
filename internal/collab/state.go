package collab

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/inkpad/inkpad/internal/drawing"
	"github.com/inkpad/inkpad/internal/operation"
)

// ErrDuplicateOperation is returned when an operation id was already
// applied.
var ErrDuplicateOperation = errors.New("duplicate operation")

// maxOpLog is how many applied operations a room remembers for catch-up.
const maxOpLog = 1000

// DrawingState holds the authoritative drawing for a room
type DrawingState struct {
	mu        sync.RWMutex
	doc       *drawing.Drawing
	serverSeq int64
	opLog     []operation.Record // oldest first, seq = firstSeq + index
	firstSeq  int64
	applied   map[string]struct{}
	dirty     bool
}

// NewDrawingState wraps an initial drawing
func NewDrawingState(doc *drawing.Drawing) *DrawingState {
	return &DrawingState{
		doc:      doc,
		firstSeq: 1,
		applied:  make(map[string]struct{}),
	}
}

// Apply validates a record against the drawing, applies it and returns its
// server sequence.
func (ds *DrawingState) Apply(rec operation.Record) (int64, error) {
	op, err := operation.FromRecord(rec)
	if err != nil {
		return 0, err
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()

	if _, ok := ds.applied[rec.ID]; ok && rec.ID != "" {
		return 0, fmt.Errorf("apply %s: %w", rec.ID, ErrDuplicateOperation)
	}
	if err := operation.Validate(ds.doc, op); err != nil {
		return 0, err
	}

	op.Apply(ds.doc)
	ds.doc.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	ds.serverSeq++
	ds.dirty = true
	ds.appendLocked(rec)

	return ds.serverSeq, nil
}

func (ds *DrawingState) appendLocked(rec operation.Record) {
	ds.opLog = append(ds.opLog, rec)
	if rec.ID != "" {
		ds.applied[rec.ID] = struct{}{}
	}
	if over := len(ds.opLog) - maxOpLog; over > 0 {
		for _, old := range ds.opLog[:over] {
			delete(ds.applied, old.ID)
		}
		ds.opLog = append([]operation.Record(nil), ds.opLog[over:]...)
		ds.firstSeq += int64(over)
	}
}

// ServerSeq returns the sequence of the last applied operation.
func (ds *DrawingState) ServerSeq() int64 {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.serverSeq
}

// Since returns the operations applied after seq. ok is false when some
// of them have already left the log.
func (ds *DrawingState) Since(seq int64) (ops []operation.Record, ok bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	if seq >= ds.serverSeq {
		return nil, true
	}
	if seq+1 < ds.firstSeq {
		return nil, false
	}
	start := int(seq + 1 - ds.firstSeq)
	return append([]operation.Record(nil), ds.opLog[start:]...), true
}

// Snapshot returns the drawing as JSON and the sequence it reflects.
func (ds *DrawingState) Snapshot() ([]byte, int64, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	data, err := json.Marshal(ds.doc)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal drawing: %w", err)
	}
	return data, ds.serverSeq, nil
}

// TakeDirty returns a snapshot and clears the dirty flag when there are
// unsaved changes.
func (ds *DrawingState) TakeDirty() ([]byte, bool, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if !ds.dirty {
		return nil, false, nil
	}
	data, err := json.Marshal(ds.doc)
	if err != nil {
		return nil, false, fmt.Errorf("marshal drawing: %w", err)
	}
	ds.dirty = false
	return data, true, nil
}

// MarkDirty flags the drawing for the next save, after a failed one.
func (ds *DrawingState) MarkDirty() {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.dirty = true
}

// GetServerTimestamp returns the current server timestamp
func GetServerTimestamp() int64 {
	return time.Now().UnixMilli()
}
