// Package board manages drawings as shared boards: creation, membership
// and the latest saved snapshot.
package board

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/inkpad/inkpad/internal/drawing"
	"github.com/inkpad/inkpad/internal/store"
	"github.com/inkpad/inkpad/internal/typeid"
)

var (
	ErrNotFound     = errors.New("drawing not found")
	ErrForbidden    = errors.New("forbidden")
	ErrNotMember    = errors.New("not a drawing member")
	ErrUserNotFound = errors.New("user not found")
	ErrOwnerRemoval = errors.New("cannot remove drawing owner")
	ErrInvalidSize  = errors.New("invalid drawing size")
)

// MaxSide bounds a drawing's width and height.
const MaxSide = 16384

// Store is the part of the store boards need.
type Store interface {
	CreateDrawing(ctx context.Context, d store.Drawing) (*store.Drawing, error)
	GetDrawing(ctx context.Context, id string) (*store.Drawing, error)
	ListDrawings(ctx context.Context, userID string) ([]store.Drawing, error)
	RenameDrawing(ctx context.Context, id, name string) error
	DeleteDrawing(ctx context.Context, id string) error

	AddMember(ctx context.Context, drawingID, userID, role string) error
	GetMember(ctx context.Context, drawingID, userID string) (*store.Member, error)
	ListMembers(ctx context.Context, drawingID string) ([]store.Member, error)
	RemoveMember(ctx context.Context, drawingID, userID string) error
	GetUserByEmail(ctx context.Context, email string) (*store.User, error)

	SaveSnapshot(ctx context.Context, id, drawingID string, doc []byte) (*store.Snapshot, error)
	LatestSnapshot(ctx context.Context, drawingID string) (*store.Snapshot, error)
}

type Service struct {
	store Store
}

func NewService(s Store) *Service {
	return &Service{store: s}
}

type Board struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	OwnerID   string  `json:"ownerId"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

type Member struct {
	UserID      string `json:"userId"`
	Role        string `json:"role"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// CreateOptions configure a new board. Zero sizes take the drawing
// defaults.
type CreateOptions struct {
	Name   string
	Width  float64
	Height float64
	Sample bool
}

func (s *Service) Create(ctx context.Context, ownerID string, opts CreateOptions) (*Board, error) {
	if opts.Width == 0 {
		opts.Width = drawing.DefaultWidth
	}
	if opts.Height == 0 {
		opts.Height = drawing.DefaultHeight
	}
	if opts.Width < 0 || opts.Height < 0 || opts.Width > MaxSide || opts.Height > MaxSide {
		return nil, fmt.Errorf("create drawing %vx%v: %w", opts.Width, opts.Height, ErrInvalidSize)
	}

	id := typeid.NewDrawingID()
	d, err := s.store.CreateDrawing(ctx, store.Drawing{
		ID:      id,
		Name:    opts.Name,
		OwnerID: ownerID,
		Width:   opts.Width,
		Height:  opts.Height,
	})
	if err != nil {
		return nil, fmt.Errorf("create drawing: %w", err)
	}

	// Seed the first snapshot
	var doc *drawing.Drawing
	if opts.Sample {
		doc = drawing.NewSample(id)
		doc.Name = opts.Name
	} else {
		doc = drawing.New(id, opts.Name)
	}
	doc.Width, doc.Height = opts.Width, opts.Height
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal initial drawing: %w", err)
	}
	if _, err := s.store.SaveSnapshot(ctx, typeid.NewSnapshotID(), id, docJSON); err != nil {
		return nil, fmt.Errorf("create initial snapshot: %w", err)
	}

	return toBoard(d), nil
}

func (s *Service) Get(ctx context.Context, drawingID, userID string) (*Board, error) {
	if err := s.checkMembership(ctx, drawingID, userID); err != nil {
		return nil, err
	}
	d, err := s.getDrawing(ctx, drawingID)
	if err != nil {
		return nil, err
	}
	return toBoard(d), nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Board, error) {
	ds, err := s.store.ListDrawings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list drawings: %w", err)
	}
	boards := make([]Board, len(ds))
	for i := range ds {
		boards[i] = *toBoard(&ds[i])
	}
	return boards, nil
}

func (s *Service) Rename(ctx context.Context, drawingID, userID, name string) error {
	if err := s.checkMembership(ctx, drawingID, userID); err != nil {
		return err
	}
	if err := s.store.RenameDrawing(ctx, drawingID, name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("rename drawing: %w", err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, drawingID, userID string) error {
	d, err := s.getDrawing(ctx, drawingID)
	if err != nil {
		return err
	}
	if d.OwnerID != userID {
		return ErrForbidden
	}
	if err := s.store.DeleteDrawing(ctx, drawingID); err != nil {
		return fmt.Errorf("delete drawing: %w", err)
	}
	return nil
}

func (s *Service) InviteByEmail(ctx context.Context, drawingID, ownerID, inviteeEmail string) error {
	d, err := s.getDrawing(ctx, drawingID)
	if err != nil {
		return err
	}
	if d.OwnerID != ownerID {
		return ErrForbidden
	}

	invitee, err := s.store.GetUserByEmail(ctx, inviteeEmail)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	err = s.store.AddMember(ctx, drawingID, invitee.ID, store.RoleEditor)
	if err != nil && !errors.Is(err, store.ErrDuplicate) {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

func (s *Service) ListMembers(ctx context.Context, drawingID, userID string) ([]Member, error) {
	if err := s.checkMembership(ctx, drawingID, userID); err != nil {
		return nil, err
	}
	ms, err := s.store.ListMembers(ctx, drawingID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	members := make([]Member, len(ms))
	for i, m := range ms {
		members[i] = Member{UserID: m.UserID, Role: m.Role, DisplayName: m.DisplayName, Email: m.Email}
	}
	return members, nil
}

func (s *Service) RemoveMember(ctx context.Context, drawingID, ownerID, targetUserID string) error {
	d, err := s.getDrawing(ctx, drawingID)
	if err != nil {
		return err
	}
	if d.OwnerID != ownerID {
		return ErrForbidden
	}
	if targetUserID == ownerID {
		return ErrOwnerRemoval
	}
	if err := s.store.RemoveMember(ctx, drawingID, targetUserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotMember
		}
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

// LatestDrawing returns the newest saved drawing JSON.
func (s *Service) LatestDrawing(ctx context.Context, drawingID, userID string) (json.RawMessage, error) {
	if err := s.checkMembership(ctx, drawingID, userID); err != nil {
		return nil, err
	}
	snap, err := s.store.LatestSnapshot(ctx, drawingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return snap.Document, nil
}

// CheckMembership reports ErrNotMember when userID may not open drawingID.
func (s *Service) CheckMembership(ctx context.Context, drawingID, userID string) error {
	return s.checkMembership(ctx, drawingID, userID)
}

func (s *Service) checkMembership(ctx context.Context, drawingID, userID string) error {
	if _, err := s.store.GetMember(ctx, drawingID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotMember
		}
		return fmt.Errorf("check membership: %w", err)
	}
	return nil
}

func (s *Service) getDrawing(ctx context.Context, id string) (*store.Drawing, error) {
	d, err := s.store.GetDrawing(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get drawing: %w", err)
	}
	return d, nil
}

func toBoard(d *store.Drawing) *Board {
	return &Board{
		ID:        d.ID,
		Name:      d.Name,
		OwnerID:   d.OwnerID,
		Width:     d.Width,
		Height:    d.Height,
		CreatedAt: d.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: d.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
