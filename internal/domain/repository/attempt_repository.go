package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quizmaster/internal/common"
	"quizmaster/internal/domain/model"
	"quizmaster/internal/platform/database"
)

type AttemptRepository interface {
	NextAttemptNumber(ctx context.Context, tx *sql.Tx, studentID, quizID int64) (int, error)
	CreateAttempt(ctx context.Context, tx *sql.Tx, attempt *model.Attempt) error
	UpdateScore(ctx context.Context, tx *sql.Tx, attemptID int64, score int) error
	FindAttemptByID(ctx context.Context, id int64) (*model.Attempt, error)
	FindAttemptByNumber(ctx context.Context, studentID, quizID int64, number int) (*model.Attempt, error)
	FindLatestAttempt(ctx context.Context, studentID, quizID int64) (*model.Attempt, error)
	ListAttempts(ctx context.Context, studentID, quizID int64) ([]model.Attempt, error)
	DeleteAttempt(ctx context.Context, tx *sql.Tx, id int64) error

	CreateResponse(ctx context.Context, tx *sql.Tx, resp *model.Response) error
	SetResponseCorrect(ctx context.Context, tx *sql.Tx, responseID int64, correct bool) error
	// ListResponses decodes answers with the type of the question they answer.
	ListResponses(ctx context.Context, attemptID int64) ([]model.Response, error)
}

type sqlAttemptRepository struct {
	db *database.DB
}

func NewAttemptRepository(db *database.DB) AttemptRepository {
	return &sqlAttemptRepository{db: db}
}

func (r *sqlAttemptRepository) NextAttemptNumber(ctx context.Context, tx *sql.Tx, studentID, quizID int64) (int, error) {
	var next int
	err := conn(r.db, tx).QueryRowContext(ctx, `
        SELECT COALESCE(MAX(attempt_number), 0) + 1 FROM attempts
        WHERE student_id = $1 AND quiz_id = $2`, studentID, quizID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("sqlAttemptRepository.NextAttemptNumber: %w", err)
	}
	return next, nil
}

func (r *sqlAttemptRepository) CreateAttempt(ctx context.Context, tx *sql.Tx, a *model.Attempt) error {
	query := `INSERT INTO attempts (student_id, quiz_id, attempt_number, attempt_date, score)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := conn(r.db, tx).QueryRowContext(ctx, query, a.StudentID, a.QuizID, a.AttemptNumber, a.AttemptDate.Unix(), a.Score).
		Scan(&a.ID)
	if err != nil {
		if database.IsUniqueViolation(err) || database.IsSerializationFailure(err) {
			return common.NewError(common.ErrConflict, "Attempt %d was recorded concurrently, please resubmit", a.AttemptNumber)
		}
		return fmt.Errorf("sqlAttemptRepository.CreateAttempt: %w", err)
	}
	return nil
}

func (r *sqlAttemptRepository) UpdateScore(ctx context.Context, tx *sql.Tx, attemptID int64, score int) error {
	if _, err := conn(r.db, tx).ExecContext(ctx, `UPDATE attempts SET score = $1 WHERE id = $2`, score, attemptID); err != nil {
		return fmt.Errorf("sqlAttemptRepository.UpdateScore: %w", err)
	}
	return nil
}

const attemptColumns = `id, student_id, quiz_id, attempt_number, attempt_date, score`

func scanAttempt(row interface{ Scan(...any) error }, a *model.Attempt) error {
	var date int64
	if err := row.Scan(&a.ID, &a.StudentID, &a.QuizID, &a.AttemptNumber, &date, &a.Score); err != nil {
		return err
	}
	a.AttemptDate = time.Unix(date, 0).UTC()
	return nil
}

func (r *sqlAttemptRepository) findOne(ctx context.Context, op, query string, args ...any) (*model.Attempt, error) {
	a := &model.Attempt{}
	if err := scanAttempt(r.db.QueryRowContext(ctx, query, args...), a); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("sqlAttemptRepository.%s: %w", op, err)
	}
	return a, nil
}

func (r *sqlAttemptRepository) FindAttemptByID(ctx context.Context, id int64) (*model.Attempt, error) {
	return r.findOne(ctx, "FindAttemptByID", `SELECT `+attemptColumns+` FROM attempts WHERE id = $1`, id)
}

func (r *sqlAttemptRepository) FindAttemptByNumber(ctx context.Context, studentID, quizID int64, number int) (*model.Attempt, error) {
	return r.findOne(ctx, "FindAttemptByNumber", `SELECT `+attemptColumns+` FROM attempts
        WHERE student_id = $1 AND quiz_id = $2 AND attempt_number = $3`, studentID, quizID, number)
}

func (r *sqlAttemptRepository) FindLatestAttempt(ctx context.Context, studentID, quizID int64) (*model.Attempt, error) {
	return r.findOne(ctx, "FindLatestAttempt", `SELECT `+attemptColumns+` FROM attempts
        WHERE student_id = $1 AND quiz_id = $2
        ORDER BY attempt_number DESC LIMIT 1`, studentID, quizID)
}

func (r *sqlAttemptRepository) ListAttempts(ctx context.Context, studentID, quizID int64) ([]model.Attempt, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+attemptColumns+` FROM attempts
        WHERE student_id = $1 AND quiz_id = $2
        ORDER BY attempt_number DESC`, studentID, quizID)
	if err != nil {
		return nil, fmt.Errorf("sqlAttemptRepository.ListAttempts: %w", err)
	}
	defer rows.Close()

	attempts := []model.Attempt{}
	for rows.Next() {
		var a model.Attempt
		if err := scanAttempt(rows, &a); err != nil {
			return nil, fmt.Errorf("sqlAttemptRepository.ListAttempts scan: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

func (r *sqlAttemptRepository) DeleteAttempt(ctx context.Context, tx *sql.Tx, id int64) error {
	res, err := conn(r.db, tx).ExecContext(ctx, `DELETE FROM attempts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("sqlAttemptRepository.DeleteAttempt: %w", err)
	}
	return requireAffected(res, "sqlAttemptRepository.DeleteAttempt")
}

func (r *sqlAttemptRepository) CreateResponse(ctx context.Context, tx *sql.Tx, resp *model.Response) error {
	answer, err := json.Marshal(resp.Answer)
	if err != nil {
		return fmt.Errorf("sqlAttemptRepository.CreateResponse encode answer: %w", err)
	}
	query := `INSERT INTO responses (attempt_id, question_id, answer, is_correct)
	          VALUES ($1, $2, $3, $4) RETURNING id`
	err = conn(r.db, tx).QueryRowContext(ctx, query, resp.AttemptID, resp.QuestionID, string(answer), resp.IsCorrect).
		Scan(&resp.ID)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return common.NewError(common.ErrNotFound, "Question %d does not exist", resp.QuestionID)
		}
		return fmt.Errorf("sqlAttemptRepository.CreateResponse: %w", err)
	}
	return nil
}

func (r *sqlAttemptRepository) SetResponseCorrect(ctx context.Context, tx *sql.Tx, responseID int64, correct bool) error {
	if _, err := conn(r.db, tx).ExecContext(ctx, `UPDATE responses SET is_correct = $1 WHERE id = $2`, correct, responseID); err != nil {
		return fmt.Errorf("sqlAttemptRepository.SetResponseCorrect: %w", err)
	}
	return nil
}

func (r *sqlAttemptRepository) ListResponses(ctx context.Context, attemptID int64) ([]model.Response, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT rs.id, rs.attempt_id, rs.question_id, rs.answer, rs.is_correct, q.ans_type
        FROM responses rs
        JOIN questions q ON q.id = rs.question_id
        WHERE rs.attempt_id = $1
        ORDER BY rs.id`, attemptID)
	if err != nil {
		return nil, fmt.Errorf("sqlAttemptRepository.ListResponses: %w", err)
	}
	defer rows.Close()

	responses := []model.Response{}
	for rows.Next() {
		var (
			resp    model.Response
			raw     string
			ansType string
		)
		if err := rows.Scan(&resp.ID, &resp.AttemptID, &resp.QuestionID, &raw, &resp.IsCorrect, &ansType); err != nil {
			return nil, fmt.Errorf("sqlAttemptRepository.ListResponses scan: %w", err)
		}
		if resp.Answer, err = model.ParseAnswer(json.RawMessage(raw), model.AnswerType(ansType)); err != nil {
			return nil, fmt.Errorf("sqlAttemptRepository.ListResponses decode answer %d: %w", resp.ID, err)
		}
		responses = append(responses, resp)
	}
	return responses, rows.Err()
}
