// Package auth_repo provides PostgreSQL implementations for auth repositories.
package auth_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"taller/internal/core/apperror"
	"taller/internal/core/id"
	"taller/internal/domain/auth"
	"taller/internal/infrastructure/storage/postgres"
)

const (
	usersTable     = "users"
	userRolesTable = "user_roles"
)

// Compile-time check that UserRepo implements auth.UserRepository.
var _ auth.UserRepository = (*UserRepo)(nil)

// UserRepo implements auth.UserRepository. Roles live in a separate
// user_roles table and are loaded with every user.
type UserRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewUserRepo creates a new user repository.
func NewUserRepo(txManager *postgres.TxManager) *UserRepo {
	return &UserRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

const userCols = "id, email, password_hash, name, is_active, is_admin, " +
	"last_login_at, failed_login_attempts, locked_until, created_at, updated_at, version"

// Create creates a new user with its role assignments.
func (r *UserRepo) Create(ctx context.Context, user *auth.User) error {
	querier := r.txManager.GetQuerier(ctx)

	query := `
		INSERT INTO ` + usersTable + ` (
			id, email, password_hash, name, is_active, is_admin,
			last_login_at, failed_login_attempts, locked_until,
			created_at, updated_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := querier.Exec(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Name,
		user.IsActive, user.IsAdmin,
		user.LastLoginAt, user.FailedLoginAttempts, user.LockedUntil,
		user.CreatedAt, user.UpdatedAt, user.Version,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	return r.saveRoles(ctx, user.ID, user.Roles)
}

// GetByID retrieves a user with roles loaded.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	query := `SELECT ` + userCols + ` FROM ` + usersTable + ` WHERE id = $1`

	user := &auth.User{}
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), user, query, userID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("user", userID.String())
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	if err := r.loadRoles(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// GetByEmail retrieves a user with roles loaded.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	query := `SELECT ` + userCols + ` FROM ` + usersTable + ` WHERE email = $1`

	user := &auth.User{}
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), user, query, email); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("user", email)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	if err := r.loadRoles(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Update updates user data (login bookkeeping, activation, roles).
func (r *UserRepo) Update(ctx context.Context, user *auth.User) error {
	query := `
		UPDATE ` + usersTable + ` SET
			email = $2, password_hash = $3, name = $4,
			is_active = $5, is_admin = $6,
			last_login_at = $7, failed_login_attempts = $8, locked_until = $9,
			updated_at = $10, version = version + 1
		WHERE id = $1
	`

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Name,
		user.IsActive, user.IsAdmin,
		user.LastLoginAt, user.FailedLoginAttempts, user.LockedUntil,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("user", user.ID.String())
	}

	return r.saveRoles(ctx, user.ID, user.Roles)
}

// List retrieves users with filtering.
func (r *UserRepo) List(ctx context.Context, f auth.UserFilter) ([]auth.User, int64, error) {
	q := r.builder.
		Select(userCols).
		From(usersTable)

	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"email": pattern},
			squirrel.ILike{"name": pattern},
		})
	}
	if f.IsActive != nil {
		q = q.Where(squirrel.Eq{"is_active": *f.IsActive})
	}
	if f.Role != "" {
		q = q.Where(squirrel.Expr(
			"id IN (SELECT user_id FROM "+userRolesTable+" WHERE role = ?)", f.Role))
	}

	countQ := r.builder.Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	var total int64
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	q = q.OrderBy("email ASC")
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build query: %w", err)
	}

	var users []auth.User
	if err := pgxscan.Select(ctx, querier, &users, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	for i := range users {
		if err := r.loadRoles(ctx, &users[i]); err != nil {
			return nil, 0, err
		}
	}

	return users, total, nil
}

// Exists checks if an email is already registered.
func (r *UserRepo) Exists(ctx context.Context, email string) (bool, error) {
	query := `SELECT 1 FROM ` + usersTable + ` WHERE email = $1 LIMIT 1`

	var exists int
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, query, email).Scan(&exists)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}

	return true, nil
}

func (r *UserRepo) loadRoles(ctx context.Context, user *auth.User) error {
	query := `SELECT role FROM ` + userRolesTable + ` WHERE user_id = $1 ORDER BY role`

	rows, err := r.txManager.GetQuerier(ctx).Query(ctx, query, user.ID)
	if err != nil {
		return fmt.Errorf("query user roles: %w", err)
	}
	defer rows.Close()

	user.Roles = user.Roles[:0]
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return fmt.Errorf("scan role: %w", err)
		}
		user.Roles = append(user.Roles, role)
	}

	return rows.Err()
}

func (r *UserRepo) saveRoles(ctx context.Context, userID id.ID, roles []string) error {
	querier := r.txManager.GetQuerier(ctx)

	if _, err := querier.Exec(ctx, `DELETE FROM `+userRolesTable+` WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear user roles: %w", err)
	}

	if len(roles) == 0 {
		return nil
	}

	q := r.builder.Insert(userRolesTable).Columns("user_id", "role")
	for _, role := range roles {
		q = q.Values(userID, role)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert roles: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert user roles: %w", err)
	}

	return nil
}
