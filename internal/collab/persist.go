package collab

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/inkpad/inkpad/internal/drawing"
	"github.com/inkpad/inkpad/internal/store"
	"github.com/inkpad/inkpad/internal/typeid"
)

// PlaygroundDrawingID is the shared anonymous drawing. It starts from the
// sample and is never saved.
const PlaygroundDrawingID = "drw_playground"

// Persister loads and saves room drawings.
type Persister interface {
	LoadDrawing(ctx context.Context, drawingID string) (*drawing.Drawing, error)
	SaveDrawing(ctx context.Context, drawingID string, doc []byte) error
}

// SnapshotStore is the part of the store rooms persist through.
type SnapshotStore interface {
	LatestSnapshot(ctx context.Context, drawingID string) (*store.Snapshot, error)
	SaveSnapshot(ctx context.Context, id, drawingID string, doc []byte) (*store.Snapshot, error)
	PruneSnapshots(ctx context.Context, drawingID string, keep int) (int64, error)
}

// SnapshotPersister keeps each save as a new snapshot version. When Keep
// is positive, older versions beyond the newest Keep are pruned.
type SnapshotPersister struct {
	Store SnapshotStore
	Keep  int
}

func (p SnapshotPersister) LoadDrawing(ctx context.Context, drawingID string) (*drawing.Drawing, error) {
	if drawingID == PlaygroundDrawingID {
		return drawing.NewSample(drawingID), nil
	}
	snap, err := p.Store.LatestSnapshot(ctx, drawingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return drawing.New(drawingID, ""), nil
		}
		return nil, fmt.Errorf("load drawing %s: %w", drawingID, err)
	}
	d, err := drawing.Parse(snap.Document)
	if err != nil {
		return nil, fmt.Errorf("load drawing %s: %w", drawingID, err)
	}
	return d, nil
}

func (p SnapshotPersister) SaveDrawing(ctx context.Context, drawingID string, doc []byte) error {
	if drawingID == PlaygroundDrawingID {
		return nil
	}
	if _, err := p.Store.SaveSnapshot(ctx, typeid.NewSnapshotID(), drawingID, doc); err != nil {
		return fmt.Errorf("save drawing %s: %w", drawingID, err)
	}
	if p.Keep > 0 {
		if n, err := p.Store.PruneSnapshots(ctx, drawingID, p.Keep); err != nil {
			slog.Warn("prune snapshots", "error", err, "drawing", drawingID)
		} else if n > 0 {
			slog.Debug("pruned snapshots", "drawing", drawingID, "removed", n)
		}
	}
	return nil
}
