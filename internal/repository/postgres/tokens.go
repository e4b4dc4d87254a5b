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

const refreshTokensTable = "auth.refresh_tokens"

var refreshTokenColumns = []string{
	"id",
	"user_id",
	"token_hash",
	"created_at",
	"expires_at",
	"revoked_at",
}

// TokenRepository implements port.TokenRepository using PostgreSQL.
type TokenRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewTokenRepository constructs a new token repository.
func NewTokenRepository(exec pgExecutor) *TokenRepository {
	return &TokenRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance executing within the provided transaction.
func (r *TokenRepository) WithTx(tx pgx.Tx) *TokenRepository {
	if tx == nil {
		return r
	}
	return &TokenRepository{
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts a new refresh token record.
func (r *TokenRepository) Create(ctx context.Context, token domain.RefreshToken) error {
	stmt, args, err := r.builder.Insert(refreshTokensTable).
		Columns(refreshTokenColumns...).
		Values(
			token.ID,
			token.UserID,
			token.TokenHash,
			token.CreatedAt,
			token.ExpiresAt,
			optionalTime(token.RevokedAt),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert refresh token sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}

	return nil
}

// FindActive retrieves the live record matching owner and hash. Unknown,
// expired, and revoked tokens all surface as repository.ErrNotFound so the
// caller cannot distinguish them.
func (r *TokenRepository) FindActive(ctx context.Context, userID, tokenHash string, at time.Time) (*domain.RefreshToken, error) {
	stmt, args, err := r.builder.Select(refreshTokenColumns...).
		From(refreshTokensTable).
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.Eq{"token_hash": tokenHash}).
		Where(squirrel.Gt{"expires_at": at.UTC()}).
		Where("revoked_at IS NULL").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select refresh token sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	var (
		token     domain.RefreshToken
		revokedAt sql.NullTime
	)

	if err := row.Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.CreatedAt,
		&token.ExpiresAt,
		&revokedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan refresh token: %w", err)
	}

	token.RevokedAt = nullableTimePtr(revokedAt)

	return &token, nil
}

// Revoke flags a single record. The WHERE clause doubles as a compare-and-swap
// on the revoked flag: of two concurrent rotations presenting the same token,
// only one update reports an affected row.
func (r *TokenRepository) Revoke(ctx context.Context, id string, at time.Time) error {
	stmt, args, err := r.builder.Update(refreshTokensTable).
		Set("revoked_at", at.UTC()).
		Where(squirrel.Eq{"id": id}).
		Where("revoked_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("build revoke refresh token sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// RevokeAllByHash flags every non-revoked record carrying the hash. Used by
// logout, where zero matches is a silent no-op.
func (r *TokenRepository) RevokeAllByHash(ctx context.Context, tokenHash string, at time.Time) (int, error) {
	stmt, args, err := r.builder.Update(refreshTokensTable).
		Set("revoked_at", at.UTC()).
		Where(squirrel.Eq{"token_hash": tokenHash}).
		Where("revoked_at IS NULL").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build revoke refresh tokens by hash sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("revoke refresh tokens by hash: %w", err)
	}

	return int(ct.RowsAffected()), nil
}

// RevokeAllForUser flags every live token owned by the user.
func (r *TokenRepository) RevokeAllForUser(ctx context.Context, userID string, at time.Time) (int, error) {
	stmt, args, err := r.builder.Update(refreshTokensTable).
		Set("revoked_at", at.UTC()).
		Where(squirrel.Eq{"user_id": userID}).
		Where("revoked_at IS NULL").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build revoke refresh tokens for user sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("revoke refresh tokens for user: %w", err)
	}

	return int(ct.RowsAffected()), nil
}

// ListActiveByUser returns the user's live refresh token records, newest first.
func (r *TokenRepository) ListActiveByUser(ctx context.Context, userID string, at time.Time) ([]domain.RefreshToken, error) {
	stmt, args, err := r.builder.Select(refreshTokenColumns...).
		From(refreshTokensTable).
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.Gt{"expires_at": at.UTC()}).
		Where("revoked_at IS NULL").
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list refresh tokens sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query refresh tokens: %w", err)
	}
	defer rows.Close()

	tokens := make([]domain.RefreshToken, 0)
	for rows.Next() {
		var (
			token     domain.RefreshToken
			revokedAt sql.NullTime
		)
		if err := rows.Scan(
			&token.ID,
			&token.UserID,
			&token.TokenHash,
			&token.CreatedAt,
			&token.ExpiresAt,
			&revokedAt,
		); err != nil {
			return nil, fmt.Errorf("scan refresh token: %w", err)
		}
		token.RevokedAt = nullableTimePtr(revokedAt)
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate refresh tokens: %w", err)
	}

	return tokens, nil
}

func optionalString(value *string) any {
	if value == nil || *value == "" {
		return nil
	}
	return *value
}

func optionalTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC()
}

func nullableStringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	copied := value.String
	return &copied
}

func nullableTimePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	copied := value.Time
	return &copied
}

var _ port.TokenRepository = (*TokenRepository)(nil)
