package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"quizmaster/internal/common"
	"quizmaster/internal/domain/model"
	"quizmaster/internal/platform/database"
)

type QuizRepository interface {
	CreateQuiz(ctx context.Context, tx *sql.Tx, quiz *model.Quiz) error
	FindQuizByID(ctx context.Context, tx *sql.Tx, id int64) (*model.Quiz, error)
	ListQuizzes(ctx context.Context) ([]model.Quiz, error)
	ListQuizzesByChapter(ctx context.Context, chapterID int64) ([]model.Quiz, error)
	DeleteQuiz(ctx context.Context, tx *sql.Tx, id int64) error
	RecalculateTotalMarks(ctx context.Context, tx *sql.Tx, quizID int64) error

	AddQuestionsToQuiz(ctx context.Context, tx *sql.Tx, quizID int64, questions []model.Question) error
	FindQuestionByID(ctx context.Context, tx *sql.Tx, id int64) (*model.Question, error)
	ListQuestions(ctx context.Context, quizID int64) ([]model.Question, error) // quizID 0 lists all
	DeleteQuestion(ctx context.Context, tx *sql.Tx, id int64) (quizID int64, err error)
}

type sqlQuizRepository struct {
	db *database.DB
}

func NewQuizRepository(db *database.DB) QuizRepository {
	return &sqlQuizRepository{db: db}
}

func (r *sqlQuizRepository) CreateQuiz(ctx context.Context, tx *sql.Tx, q *model.Quiz) error {
	query := `INSERT INTO quizzes (chapter_id, name, description, total_marks, time_limit)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := conn(r.db, tx).QueryRowContext(ctx, query, q.ChapterID, q.Name, q.Description, q.TotalMarks, q.TimeLimit).
		Scan(&q.ID)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return common.NewError(common.ErrNotFound, "Chapter not found")
		}
		return fmt.Errorf("sqlQuizRepository.CreateQuiz: %w", err)
	}
	return nil
}

const quizColumns = `id, chapter_id, name, description, total_marks, time_limit`

func scanQuiz(row interface{ Scan(...any) error }, q *model.Quiz) error {
	var timeLimit sql.NullInt64
	if err := row.Scan(&q.ID, &q.ChapterID, &q.Name, &q.Description, &q.TotalMarks, &timeLimit); err != nil {
		return err
	}
	if timeLimit.Valid {
		v := int(timeLimit.Int64)
		q.TimeLimit = &v
	}
	return nil
}

func (r *sqlQuizRepository) FindQuizByID(ctx context.Context, tx *sql.Tx, id int64) (*model.Quiz, error) {
	q := &model.Quiz{}
	err := scanQuiz(conn(r.db, tx).QueryRowContext(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id = $1`, id), q)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("sqlQuizRepository.FindQuizByID: %w", err)
	}
	return q, nil
}

func (r *sqlQuizRepository) ListQuizzes(ctx context.Context) ([]model.Quiz, error) {
	return r.queryQuizzes(ctx, "ListQuizzes", `SELECT `+quizColumns+` FROM quizzes ORDER BY id`)
}

func (r *sqlQuizRepository) ListQuizzesByChapter(ctx context.Context, chapterID int64) ([]model.Quiz, error) {
	return r.queryQuizzes(ctx, "ListQuizzesByChapter",
		`SELECT `+quizColumns+` FROM quizzes WHERE chapter_id = $1 ORDER BY id`, chapterID)
}

func (r *sqlQuizRepository) queryQuizzes(ctx context.Context, op, query string, args ...any) ([]model.Quiz, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlQuizRepository.%s: %w", op, err)
	}
	defer rows.Close()

	quizzes := []model.Quiz{}
	for rows.Next() {
		var q model.Quiz
		if err := scanQuiz(rows, &q); err != nil {
			return nil, fmt.Errorf("sqlQuizRepository.%s scan: %w", op, err)
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}

func (r *sqlQuizRepository) DeleteQuiz(ctx context.Context, tx *sql.Tx, id int64) error {
	res, err := conn(r.db, tx).ExecContext(ctx, `DELETE FROM quizzes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("sqlQuizRepository.DeleteQuiz: %w", err)
	}
	return requireAffected(res, "sqlQuizRepository.DeleteQuiz")
}

func (r *sqlQuizRepository) RecalculateTotalMarks(ctx context.Context, tx *sql.Tx, quizID int64) error {
	_, err := conn(r.db, tx).ExecContext(ctx, `
        UPDATE quizzes SET total_marks = (SELECT COALESCE(SUM(marks), 0) FROM questions WHERE quiz_id = $1)
        WHERE id = $1`, quizID)
	if err != nil {
		return fmt.Errorf("sqlQuizRepository.RecalculateTotalMarks: %w", err)
	}
	return nil
}

func (r *sqlQuizRepository) AddQuestionsToQuiz(ctx context.Context, tx *sql.Tx, quizID int64, questions []model.Question) error {
	query := `INSERT INTO questions (quiz_id, question_statement, ans_type, options, correct_options, correct_min, correct_max, marks)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	q := conn(r.db, tx)
	for i := range questions {
		qs := &questions[i]
		options, err := json.Marshal(nonNilStrings(qs.Options))
		if err != nil {
			return fmt.Errorf("sqlQuizRepository.AddQuestionsToQuiz options: %w", err)
		}
		correct, err := json.Marshal(nonNilInts(qs.CorrectOptions))
		if err != nil {
			return fmt.Errorf("sqlQuizRepository.AddQuestionsToQuiz correct options: %w", err)
		}
		qs.QuizID = quizID
		err = q.QueryRowContext(ctx, query, quizID, qs.QuestionStatement, string(qs.AnsType), string(options), string(correct),
			qs.CorrectMin, qs.CorrectMax, qs.Marks).Scan(&qs.ID)
		if err != nil {
			return fmt.Errorf("sqlQuizRepository.AddQuestionsToQuiz question %d: %w", i+1, err)
		}
	}
	return nil
}

const questionColumns = `id, quiz_id, question_statement, ans_type, options, correct_options, correct_min, correct_max, marks`

func scanQuestion(row interface{ Scan(...any) error }, q *model.Question) error {
	var (
		ansType          string
		options, correct string
		minV, maxV       sql.NullFloat64
	)
	if err := row.Scan(&q.ID, &q.QuizID, &q.QuestionStatement, &ansType, &options, &correct, &minV, &maxV, &q.Marks); err != nil {
		return err
	}
	q.AnsType = model.AnswerType(ansType)
	if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
		return fmt.Errorf("decode options of question %d: %w", q.ID, err)
	}
	if err := json.Unmarshal([]byte(correct), &q.CorrectOptions); err != nil {
		return fmt.Errorf("decode correct options of question %d: %w", q.ID, err)
	}
	if minV.Valid {
		q.CorrectMin = &minV.Float64
	}
	if maxV.Valid {
		q.CorrectMax = &maxV.Float64
	}
	return nil
}

func (r *sqlQuizRepository) FindQuestionByID(ctx context.Context, tx *sql.Tx, id int64) (*model.Question, error) {
	q := &model.Question{}
	err := scanQuestion(conn(r.db, tx).QueryRowContext(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id), q)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("sqlQuizRepository.FindQuestionByID: %w", err)
	}
	return q, nil
}

func (r *sqlQuizRepository) ListQuestions(ctx context.Context, quizID int64) ([]model.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions ORDER BY id`
	var args []any
	if quizID != 0 {
		query = `SELECT ` + questionColumns + ` FROM questions WHERE quiz_id = $1 ORDER BY id`
		args = append(args, quizID)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlQuizRepository.ListQuestions: %w", err)
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		var q model.Question
		if err := scanQuestion(rows, &q); err != nil {
			return nil, fmt.Errorf("sqlQuizRepository.ListQuestions scan: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (r *sqlQuizRepository) DeleteQuestion(ctx context.Context, tx *sql.Tx, id int64) (int64, error) {
	var quizID int64
	err := conn(r.db, tx).QueryRowContext(ctx, `DELETE FROM questions WHERE id = $1 RETURNING quiz_id`, id).Scan(&quizID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrNotFound
		}
		return 0, fmt.Errorf("sqlQuizRepository.DeleteQuestion: %w", err)
	}
	return quizID, nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilInts(s []int) []int {
	if s == nil {
		return []int{}
	}
	return s
}
