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

type ChapterRepository interface {
	Create(ctx context.Context, tx *sql.Tx, chapter *model.Chapter) error
	LinkToSubject(ctx context.Context, tx *sql.Tx, subjectID, chapterID int64) error
	SlugTakenInSubject(ctx context.Context, tx *sql.Tx, subjectID int64, slug string) (bool, error)
	FindByID(ctx context.Context, id int64) (*model.Chapter, error)
	Exists(ctx context.Context, tx *sql.Tx, id int64) (bool, error)
	List(ctx context.Context) ([]model.Chapter, error)
	ListBySubject(ctx context.Context, subjectID int64) ([]model.Chapter, error)
	Delete(ctx context.Context, tx *sql.Tx, id int64) error
}

type sqlChapterRepository struct {
	db *database.DB
}

func NewChapterRepository(db *database.DB) ChapterRepository {
	return &sqlChapterRepository{db: db}
}

func (r *sqlChapterRepository) Create(ctx context.Context, tx *sql.Tx, c *model.Chapter) error {
	query := `INSERT INTO chapters (name, slug, description) VALUES ($1, $2, $3) RETURNING id`
	if err := conn(r.db, tx).QueryRowContext(ctx, query, c.Name, c.Slug, c.Description).Scan(&c.ID); err != nil {
		return fmt.Errorf("sqlChapterRepository.Create: %w", err)
	}
	return nil
}

func (r *sqlChapterRepository) LinkToSubject(ctx context.Context, tx *sql.Tx, subjectID, chapterID int64) error {
	_, err := conn(r.db, tx).ExecContext(ctx,
		`INSERT INTO subject_chapters (subject_id, chapter_id) VALUES ($1, $2)`, subjectID, chapterID)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return common.NewError(common.ErrNotFound, "Subject not found")
		}
		return fmt.Errorf("sqlChapterRepository.LinkToSubject: %w", err)
	}
	return nil
}

func (r *sqlChapterRepository) SlugTakenInSubject(ctx context.Context, tx *sql.Tx, subjectID int64, slug string) (bool, error) {
	var one int
	err := conn(r.db, tx).QueryRowContext(ctx, `
        SELECT 1 FROM chapters c
        JOIN subject_chapters sc ON sc.chapter_id = c.id
        WHERE sc.subject_id = $1 AND c.slug = $2
        LIMIT 1`, subjectID, slug).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlChapterRepository.SlugTakenInSubject: %w", err)
	}
	return true, nil
}

func (r *sqlChapterRepository) FindByID(ctx context.Context, id int64) (*model.Chapter, error) {
	c := &model.Chapter{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name, slug, description FROM chapters WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Slug, &c.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("sqlChapterRepository.FindByID: %w", err)
	}
	return c, nil
}

func (r *sqlChapterRepository) Exists(ctx context.Context, tx *sql.Tx, id int64) (bool, error) {
	var one int
	err := conn(r.db, tx).QueryRowContext(ctx, `SELECT 1 FROM chapters WHERE id = $1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlChapterRepository.Exists: %w", err)
	}
	return true, nil
}

func (r *sqlChapterRepository) List(ctx context.Context) ([]model.Chapter, error) {
	return r.query(ctx, "List", `SELECT id, name, slug, description FROM chapters ORDER BY id`)
}

func (r *sqlChapterRepository) ListBySubject(ctx context.Context, subjectID int64) ([]model.Chapter, error) {
	return r.query(ctx, "ListBySubject", `
        SELECT c.id, c.name, c.slug, c.description FROM chapters c
        JOIN subject_chapters sc ON sc.chapter_id = c.id
        WHERE sc.subject_id = $1
        ORDER BY c.id`, subjectID)
}

func (r *sqlChapterRepository) query(ctx context.Context, op, query string, args ...any) ([]model.Chapter, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlChapterRepository.%s: %w", op, err)
	}
	defer rows.Close()

	chapters := []model.Chapter{}
	for rows.Next() {
		var c model.Chapter
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description); err != nil {
			return nil, fmt.Errorf("sqlChapterRepository.%s scan: %w", op, err)
		}
		chapters = append(chapters, c)
	}
	return chapters, rows.Err()
}

func (r *sqlChapterRepository) Delete(ctx context.Context, tx *sql.Tx, id int64) error {
	res, err := conn(r.db, tx).ExecContext(ctx, `DELETE FROM chapters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("sqlChapterRepository.Delete: %w", err)
	}
	return requireAffected(res, "sqlChapterRepository.Delete")
}
