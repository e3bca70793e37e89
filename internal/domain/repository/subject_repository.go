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

type SubjectRepository interface {
	Create(ctx context.Context, tx *sql.Tx, subject *model.Subject) error
	FindByID(ctx context.Context, id int64) (*model.Subject, error)
	Exists(ctx context.Context, tx *sql.Tx, id int64) (bool, error)
	List(ctx context.Context) ([]model.Subject, error)
	Delete(ctx context.Context, tx *sql.Tx, id int64) error
}

type sqlSubjectRepository struct {
	db *database.DB
}

func NewSubjectRepository(db *database.DB) SubjectRepository {
	return &sqlSubjectRepository{db: db}
}

func (r *sqlSubjectRepository) Create(ctx context.Context, tx *sql.Tx, s *model.Subject) error {
	query := `INSERT INTO subjects (name, slug, description, image_url)
	          VALUES ($1, $2, $3, $4) RETURNING id`
	err := conn(r.db, tx).QueryRowContext(ctx, query, s.Name, s.Slug, s.Description, s.ImageURL).Scan(&s.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return common.NewError(common.ErrConflict, "Subject %q already exists", s.Name)
		}
		return fmt.Errorf("sqlSubjectRepository.Create: %w", err)
	}
	return nil
}

func (r *sqlSubjectRepository) FindByID(ctx context.Context, id int64) (*model.Subject, error) {
	s := &model.Subject{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, slug, description, image_url FROM subjects WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.Slug, &s.Description, &s.ImageURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("sqlSubjectRepository.FindByID: %w", err)
	}
	return s, nil
}

func (r *sqlSubjectRepository) Exists(ctx context.Context, tx *sql.Tx, id int64) (bool, error) {
	var one int
	err := conn(r.db, tx).QueryRowContext(ctx, `SELECT 1 FROM subjects WHERE id = $1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlSubjectRepository.Exists: %w", err)
	}
	return true, nil
}

func (r *sqlSubjectRepository) List(ctx context.Context) ([]model.Subject, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, slug, description, image_url FROM subjects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlSubjectRepository.List: %w", err)
	}
	defer rows.Close()

	subjects := []model.Subject{}
	for rows.Next() {
		var s model.Subject
		if err := rows.Scan(&s.ID, &s.Name, &s.Slug, &s.Description, &s.ImageURL); err != nil {
			return nil, fmt.Errorf("sqlSubjectRepository.List scan: %w", err)
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}

// Delete removes the subject and its association rows. Chapters stay: they may
// be linked to other subjects.
func (r *sqlSubjectRepository) Delete(ctx context.Context, tx *sql.Tx, id int64) error {
	res, err := conn(r.db, tx).ExecContext(ctx, `DELETE FROM subjects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("sqlSubjectRepository.Delete: %w", err)
	}
	return requireAffected(res, "sqlSubjectRepository.Delete")
}
