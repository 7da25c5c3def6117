// Package store persists users, drawings, members and drawing snapshots in
// PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// Member roles.
const (
	RoleOwner  = "owner"
	RoleEditor = "editor"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
}

type Drawing struct {
	ID        string
	Name      string
	OwnerID   string
	Width     float64
	Height    float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Member struct {
	DrawingID   string
	UserID      string
	Role        string
	DisplayName string
	Email       string
}

type Snapshot struct {
	ID        string
	DrawingID string
	Version   int64
	Document  []byte
	CreatedAt time.Time
}

type Store struct {
	pool *pgxpool.Pool
}

// Open connects to databaseURL and checks the connection.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Close() {
	s.pool.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	display_name  TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS drawings (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	owner_id   TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	width      DOUBLE PRECISION NOT NULL,
	height     DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS drawing_members (
	drawing_id TEXT NOT NULL REFERENCES drawings(id) ON DELETE CASCADE,
	user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	role       TEXT NOT NULL,
	PRIMARY KEY (drawing_id, user_id)
);

CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY,
	drawing_id TEXT NOT NULL REFERENCES drawings(id) ON DELETE CASCADE,
	version    BIGINT NOT NULL,
	document   JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (drawing_id, version)
);
`

// EnsureSchema creates missing tables.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// --- Users ---

func (s *Store) CreateUser(ctx context.Context, u User) (*User, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, password_hash, display_name)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, email, password_hash, display_name, created_at`,
		u.ID, u.Email, u.PasswordHash, u.DisplayName)
	out, err := scanUser(row)
	if err != nil {
		return nil, wrap("create user", err)
	}
	return out, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, display_name, created_at FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if err != nil {
		return nil, wrap("get user by email", err)
	}
	return u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, display_name, created_at FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, wrap("get user", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// --- Drawings ---

// CreateDrawing inserts d and makes its owner a member in one transaction.
func (s *Store) CreateDrawing(ctx context.Context, d Drawing) (*Drawing, error) {
	var out *Drawing
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`INSERT INTO drawings (id, name, owner_id, width, height)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id, name, owner_id, width, height, created_at, updated_at`,
			d.ID, d.Name, d.OwnerID, d.Width, d.Height)
		var err error
		if out, err = scanDrawing(row); err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO drawing_members (drawing_id, user_id, role) VALUES ($1, $2, $3)`,
			d.ID, d.OwnerID, RoleOwner)
		return err
	})
	if err != nil {
		return nil, wrap("create drawing", err)
	}
	return out, nil
}

func (s *Store) GetDrawing(ctx context.Context, id string) (*Drawing, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, owner_id, width, height, created_at, updated_at FROM drawings WHERE id = $1`, id)
	d, err := scanDrawing(row)
	if err != nil {
		return nil, wrap("get drawing", err)
	}
	return d, nil
}

// ListDrawings returns the drawings userID is a member of, newest first.
func (s *Store) ListDrawings(ctx context.Context, userID string) ([]Drawing, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT d.id, d.name, d.owner_id, d.width, d.height, d.created_at, d.updated_at
		 FROM drawings d JOIN drawing_members m ON m.drawing_id = d.id
		 WHERE m.user_id = $1
		 ORDER BY d.updated_at DESC`, userID)
	if err != nil {
		return nil, wrap("list drawings", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Drawing, error) {
		d, err := scanDrawing(row)
		if err != nil {
			return Drawing{}, err
		}
		return *d, nil
	})
	if err != nil {
		return nil, wrap("list drawings", err)
	}
	return out, nil
}

func (s *Store) RenameDrawing(ctx context.Context, id, name string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE drawings SET name = $2, updated_at = now() WHERE id = $1`, id, name)
	if err != nil {
		return wrap("rename drawing", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("rename drawing %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteDrawing(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM drawings WHERE id = $1`, id)
	if err != nil {
		return wrap("delete drawing", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete drawing %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanDrawing(row pgx.Row) (*Drawing, error) {
	var d Drawing
	if err := row.Scan(&d.ID, &d.Name, &d.OwnerID, &d.Width, &d.Height, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

// --- Members ---

func (s *Store) AddMember(ctx context.Context, drawingID, userID, role string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO drawing_members (drawing_id, user_id, role) VALUES ($1, $2, $3)`,
		drawingID, userID, role)
	if err != nil {
		return wrap("add member", err)
	}
	return nil
}

func (s *Store) GetMember(ctx context.Context, drawingID, userID string) (*Member, error) {
	var m Member
	err := s.pool.QueryRow(ctx,
		`SELECT m.drawing_id, m.user_id, m.role, u.display_name, u.email
		 FROM drawing_members m JOIN users u ON u.id = m.user_id
		 WHERE m.drawing_id = $1 AND m.user_id = $2`, drawingID, userID).
		Scan(&m.DrawingID, &m.UserID, &m.Role, &m.DisplayName, &m.Email)
	if err != nil {
		return nil, wrap("get member", err)
	}
	return &m, nil
}

func (s *Store) ListMembers(ctx context.Context, drawingID string) ([]Member, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT m.drawing_id, m.user_id, m.role, u.display_name, u.email
		 FROM drawing_members m JOIN users u ON u.id = m.user_id
		 WHERE m.drawing_id = $1
		 ORDER BY u.display_name`, drawingID)
	if err != nil {
		return nil, wrap("list members", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Member, error) {
		var m Member
		err := row.Scan(&m.DrawingID, &m.UserID, &m.Role, &m.DisplayName, &m.Email)
		return m, err
	})
	if err != nil {
		return nil, wrap("list members", err)
	}
	return out, nil
}

func (s *Store) RemoveMember(ctx context.Context, drawingID, userID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM drawing_members WHERE drawing_id = $1 AND user_id = $2`, drawingID, userID)
	if err != nil {
		return wrap("remove member", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("remove member %s: %w", userID, ErrNotFound)
	}
	return nil
}

// --- Snapshots ---

// SaveSnapshot stores doc as the drawing's next version and bumps the
// drawing's updated_at.
func (s *Store) SaveSnapshot(ctx context.Context, id, drawingID string, doc []byte) (*Snapshot, error) {
	var out Snapshot
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO snapshots (id, drawing_id, version, document)
			 SELECT $1, $2, COALESCE(MAX(version), 0) + 1, $3
			 FROM snapshots WHERE drawing_id = $2
			 RETURNING id, drawing_id, version, document, created_at`,
			id, drawingID, doc).
			Scan(&out.ID, &out.DrawingID, &out.Version, &out.Document, &out.CreatedAt)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE drawings SET updated_at = now() WHERE id = $1`, drawingID)
		return err
	})
	if err != nil {
		return nil, wrap("save snapshot", err)
	}
	return &out, nil
}

func (s *Store) LatestSnapshot(ctx context.Context, drawingID string) (*Snapshot, error) {
	var out Snapshot
	err := s.pool.QueryRow(ctx,
		`SELECT id, drawing_id, version, document, created_at
		 FROM snapshots WHERE drawing_id = $1
		 ORDER BY version DESC LIMIT 1`, drawingID).
		Scan(&out.ID, &out.DrawingID, &out.Version, &out.Document, &out.CreatedAt)
	if err != nil {
		return nil, wrap("latest snapshot", err)
	}
	return &out, nil
}

// PruneSnapshots keeps the newest keep versions of a drawing.
func (s *Store) PruneSnapshots(ctx context.Context, drawingID string, keep int) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM snapshots WHERE drawing_id = $1 AND version <= (
			SELECT COALESCE(MAX(version), 0) - $2 FROM snapshots WHERE drawing_id = $1
		 )`, drawingID, keep)
	if err != nil {
		return 0, wrap("prune snapshots", err)
	}
	return tag.RowsAffected(), nil
}

// wrap maps driver errors onto the package's sentinels.
func wrap(op string, err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case isDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
