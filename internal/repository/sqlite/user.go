package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/grocery-tracker/internal/apperror"
	"github.com/sakif/grocery-tracker/internal/model"
	"github.com/sakif/grocery-tracker/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// CreateUser inserts a new user.
//
// The UNIQUE constraint on username is the real guard against duplicates. The
// service checks first for a friendly error, but two concurrent registrations
// can both pass that check; the loser ends up here with a constraint error,
// which we translate to apperror.ErrDuplicate.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.CreatedAt = db.now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, phone_number, created_at)
		 VALUES (?, ?, ?, ?)`,
		user.Username,
		user.PasswordHash,
		user.PhoneNumber,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Duplicate("user", "username", user.Username)
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}

	// LastInsertId returns the INTEGER PRIMARY KEY SQLite assigned.
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new user id: %w", err)
	}
	user.ID = id

	return nil
}

// GetUserByID retrieves a user by ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, username, password_hash, phone_number, created_at
		 FROM users WHERE id = ?`,
		id,
	)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %d: %w", id, err)
	}
	return u, nil
}

// GetUserByUsername is used by login and by the registration duplicate check.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, username, password_hash, phone_number, created_at
		 FROM users WHERE username = ?`,
		username,
	)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &apperror.AppError{
				Err:     apperror.ErrNotFound,
				Message: fmt.Sprintf("user %q not found", username),
			}
		}
		return nil, fmt.Errorf("sqlite: getting user %q: %w", username, err)
	}
	return u, nil
}

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.PhoneNumber, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
