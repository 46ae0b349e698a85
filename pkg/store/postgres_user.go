package store

import (
	"context"
	"errors"
	"strings"
	"time"

	// Packages
	debtstack "github.com/debtstack-ai/debtstack"
	schema "github.com/debtstack-ai/debtstack/pkg/schema"
	pgx "github.com/jackc/pgx/v5"
	pgxpool "github.com/jackc/pgx/v5/pgxpool"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// PostgresUserStore keeps users in a Postgres table
type PostgresUserStore struct {
	pool *pgxpool.Pool
}

var _ schema.UserStore = (*PostgresUserStore)(nil)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	userBootstrap = `CREATE TABLE IF NOT EXISTS users (
		id         TEXT PRIMARY KEY,
		email      TEXT NOT NULL DEFAULT '',
		tier       TEXT NOT NULL DEFAULT 'free',
		credits    DOUBLE PRECISION NOT NULL DEFAULT 0,
		is_admin   BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ
	)`
	userColumns = `id, email, tier, credits, is_admin, created_at, updated_at`
	userGet     = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	userEnsure  = `INSERT INTO users (id, email) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET email = CASE WHEN EXCLUDED.email <> '' THEN EXCLUDED.email ELSE users.email END
		RETURNING ` + userColumns
	userCount = `SELECT COUNT(*) FROM users WHERE ($1 = '' OR tier = $1)`
	userList  = `SELECT ` + userColumns + ` FROM users WHERE ($1 = '' OR tier = $1)
		ORDER BY created_at, id OFFSET $2 LIMIT $3`
	userUpdate = `UPDATE users SET
		tier = COALESCE($2, tier),
		credits = COALESCE($3, credits),
		is_admin = COALESCE($4, is_admin),
		updated_at = now()
		WHERE id = $1 RETURNING ` + userColumns
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewPostgresUserStore connects to the database and creates the users
// table if it does not exist
func NewPostgresUserStore(ctx context.Context, url string) (*PostgresUserStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, userBootstrap); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresUserStore{pool: pool}, nil
}

// Close releases the connection pool
func (s *PostgresUserStore) Close() {
	s.pool.Close()
}

// Truncate removes every user
func (s *PostgresUserStore) Truncate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE users`)
	return err
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (s *PostgresUserStore) GetUser(ctx context.Context, id string) (*schema.User, error) {
	user, err := scanUser(s.pool.QueryRow(ctx, userGet, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, debtstack.ErrNotFound.Withf("user not found: %q", id)
	}
	return user, err
}

func (s *PostgresUserStore) EnsureUser(ctx context.Context, id, email string) (*schema.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, debtstack.ErrBadParameter.With("user id is required")
	}
	return scanUser(s.pool.QueryRow(ctx, userEnsure, id, strings.TrimSpace(email)))
}

func (s *PostgresUserStore) ListUsers(ctx context.Context, req schema.ListUserRequest) (*schema.ListUserResponse, error) {
	response := &schema.ListUserResponse{
		Offset: req.Offset,
		Limit:  req.Limit,
	}
	var count int64
	if err := s.pool.QueryRow(ctx, userCount, req.Tier).Scan(&count); err != nil {
		return nil, err
	}
	response.Count = uint(count)

	// A null limit returns all rows
	var limit *int64
	if req.Limit != nil {
		limit = new(int64)
		*limit = int64(*req.Limit)
	}
	rows, err := s.pool.Query(ctx, userList, req.Tier, int64(req.Offset), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		response.Body = append(response.Body, *user)
	}
	return response, rows.Err()
}

func (s *PostgresUserStore) UpdateUser(ctx context.Context, id string, req schema.UpdateUserRequest) (*schema.User, error) {
	user, err := scanUser(s.pool.QueryRow(ctx, userUpdate, id, req.Tier, req.Credits, req.IsAdmin))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, debtstack.ErrNotFound.Withf("user not found: %q", id)
	}
	return user, err
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func scanUser(row pgx.Row) (*schema.User, error) {
	var user schema.User
	var updated *time.Time
	if err := row.Scan(&user.ID, &user.Email, &user.Tier, &user.Credits, &user.IsAdmin, &user.CreatedAt, &updated); err != nil {
		return nil, err
	}
	if updated != nil {
		user.UpdatedAt = *updated
	}
	return &user, nil
}
