package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"quizmaster/internal/common"
	"quizmaster/internal/domain/model"
	"quizmaster/internal/platform/database"
)

type UserRepository interface {
	Create(ctx context.Context, tx *sql.Tx, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id int64) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	SetActive(ctx context.Context, tx *sql.Tx, id int64, active bool) error
	Delete(ctx context.Context, tx *sql.Tx, id int64) error

	FindOrCreateRole(ctx context.Context, tx *sql.Tx, name, description string) (*model.Role, error)
	AddRole(ctx context.Context, tx *sql.Tx, userID int64, roleName string) error
}

type sqlUserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) UserRepository {
	return &sqlUserRepository{db: db}
}

func (r *sqlUserRepository) Create(ctx context.Context, tx *sql.Tx, user *model.User) error {
	query := `INSERT INTO users (name, email, password, fs_uniquifier, active)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := conn(r.db, tx).QueryRowContext(ctx, query, user.Name, user.Email, user.HashedPassword, user.FsUniquifier, user.Active).
		Scan(&user.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return common.NewError(common.ErrConflict, "Email already exists")
		}
		return fmt.Errorf("sqlUserRepository.Create: %w", err)
	}
	return nil
}

const userColumns = `id, name, email, password, fs_uniquifier, active`

func (r *sqlUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "FindByEmail", `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *sqlUserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return r.findOne(ctx, "FindByID", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *sqlUserRepository) findOne(ctx context.Context, op, query string, arg any) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Name, &user.Email, &user.HashedPassword, &user.FsUniquifier, &user.Active,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("sqlUserRepository.%s: %w", op, err)
	}
	if user.Roles, err = r.rolesOf(ctx, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *sqlUserRepository) rolesOf(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT ro.name FROM roles ro
        JOIN user_roles ur ON ur.role_id = ro.id
        WHERE ur.user_id = $1
        ORDER BY ro.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlUserRepository.rolesOf: %w", err)
	}
	defer rows.Close()

	roles := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("sqlUserRepository.rolesOf scan: %w", err)
		}
		roles = append(roles, name)
	}
	return roles, rows.Err()
}

func (r *sqlUserRepository) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlUserRepository.List: %w", err)
	}
	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.HashedPassword, &u.FsUniquifier, &u.Active); err != nil {
			rows.Close()
			return nil, fmt.Errorf("sqlUserRepository.List scan: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("sqlUserRepository.List rows: %w", err)
	}
	rows.Close()

	// Roles are loaded after the cursor is closed: SQLite has a single connection.
	for i := range users {
		if users[i].Roles, err = r.rolesOf(ctx, users[i].ID); err != nil {
			return nil, err
		}
	}
	return users, nil
}

func (r *sqlUserRepository) SetActive(ctx context.Context, tx *sql.Tx, id int64, active bool) error {
	res, err := conn(r.db, tx).ExecContext(ctx, `UPDATE users SET active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("sqlUserRepository.SetActive: %w", err)
	}
	return requireAffected(res, "sqlUserRepository.SetActive")
}

func (r *sqlUserRepository) Delete(ctx context.Context, tx *sql.Tx, id int64) error {
	res, err := conn(r.db, tx).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("sqlUserRepository.Delete: %w", err)
	}
	return requireAffected(res, "sqlUserRepository.Delete")
}

func (r *sqlUserRepository) FindOrCreateRole(ctx context.Context, tx *sql.Tx, name, description string) (*model.Role, error) {
	q := conn(r.db, tx)
	role := &model.Role{}
	err := q.QueryRowContext(ctx, `SELECT id, name, description FROM roles WHERE name = $1`, name).
		Scan(&role.ID, &role.Name, &role.Description)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlUserRepository.FindOrCreateRole lookup: %w", err)
	}

	role.Name, role.Description = name, description
	err = q.QueryRowContext(ctx, `INSERT INTO roles (name, description) VALUES ($1, $2) RETURNING id`, name, description).
		Scan(&role.ID)
	if err != nil {
		return nil, fmt.Errorf("sqlUserRepository.FindOrCreateRole insert: %w", err)
	}
	return role, nil
}

func (r *sqlUserRepository) AddRole(ctx context.Context, tx *sql.Tx, userID int64, roleName string) error {
	q := conn(r.db, tx)
	var roleID int64
	if err := q.QueryRowContext(ctx, `SELECT id FROM roles WHERE name = $1`, roleName).Scan(&roleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("role %q: %w", roleName, common.ErrNotFound)
		}
		return fmt.Errorf("sqlUserRepository.AddRole lookup: %w", err)
	}
	_, err := q.ExecContext(ctx, `INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)
	          ON CONFLICT (user_id, role_id) DO NOTHING`, userID, roleID)
	if err != nil {
		return fmt.Errorf("sqlUserRepository.AddRole: %w", err)
	}
	return nil
}

func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
