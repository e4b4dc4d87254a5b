package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/chirpnet/chirp-auth/internal/core/domain"
	"github.com/chirpnet/chirp-auth/internal/core/port"
	"github.com/chirpnet/chirp-auth/internal/repository"
)

const usersTable = "auth.users"

var userColumns = []string{
	"id",
	"email",
	"username",
	"display_name",
	"bio",
	"profile_image",
	"password_hash",
	"is_active",
	"created_at",
	"last_active_at",
}

// UserRepository implements port.UserRepository using PostgreSQL.
type UserRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewUserRepository wires a PostgreSQL-backed user repository.
func NewUserRepository(exec pgExecutor) *UserRepository {
	return &UserRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *UserRepository) WithTx(tx pgx.Tx) *UserRepository {
	if tx == nil {
		return r
	}
	return &UserRepository{
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts a new user row.
func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	stmt, args, err := r.builder.Insert(usersTable).
		Columns(userColumns...).
		Values(
			user.ID,
			user.Email,
			user.Username,
			user.DisplayName,
			optionalString(user.Bio),
			optionalString(user.ProfileImage),
			user.PasswordHash,
			user.IsActive,
			user.CreatedAt,
			optionalTime(user.LastActiveAt),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert user sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by identifier.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByEmail retrieves a user by email. Login uses email only, never username.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Eq{"email": email})
}

// GetByEmailOrUsername performs the disjunctive lookup used by registration
// conflict checks.
func (r *UserRepository) GetByEmailOrUsername(ctx context.Context, email, username string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Or{
		squirrel.Eq{"email": email},
		squirrel.Eq{"username": username},
	})
}

func (r *UserRepository) getOne(ctx context.Context, pred any) (*domain.User, error) {
	stmt, args, err := r.builder.
		Select(userColumns...).
		From(usersTable).
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	var (
		user         domain.User
		bio          sql.NullString
		profileImage sql.NullString
		lastActiveAt sql.NullTime
	)

	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.DisplayName,
		&bio,
		&profileImage,
		&user.PasswordHash,
		&user.IsActive,
		&user.CreatedAt,
		&lastActiveAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	user.Bio = nullableStringPtr(bio)
	user.ProfileImage = nullableStringPtr(profileImage)
	user.LastActiveAt = nullableTimePtr(lastActiveAt)

	return &user, nil
}

// UpdateLastActive stamps the user's last activity moment.
func (r *UserRepository) UpdateLastActive(ctx context.Context, id string, at time.Time) error {
	stmt, args, err := r.builder.Update(usersTable).
		Set("last_active_at", at.UTC()).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update last active sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update last active: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpdateProfile modifies the user's presentational fields.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, displayName string, bio, profileImage *string) error {
	stmt, args, err := r.builder.Update(usersTable).
		Set("display_name", displayName).
		Set("bio", optionalString(bio)).
		Set("profile_image", optionalString(profileImage)).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update profile sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ port.UserRepository = (*UserRepository)(nil)
