package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"quizmaster/internal/common"
	"quizmaster/internal/domain/model"
	"quizmaster/internal/domain/repository"
	"quizmaster/internal/platform/database"
)

type QuizService struct {
	quizRepo    repository.QuizRepository
	chapterRepo repository.ChapterRepository
	reader      catalogReader
	db          *database.DB
}

func NewQuizService(quizRepo repository.QuizRepository, chapterRepo repository.ChapterRepository, db *database.DB) *QuizService {
	return &QuizService{
		quizRepo:    quizRepo,
		chapterRepo: chapterRepo,
		reader:      catalogReader{chapterRepo: chapterRepo, quizRepo: quizRepo},
		db:          db,
	}
}

// CreateQuestionRequest accepts both the current field names and the older
// ones ("question", "type", "correct_ans", "correct_num_range").
type CreateQuestionRequest struct {
	QuestionStatement string    `json:"question_statement"`
	Question          string    `json:"question"`
	AnsType           string    `json:"ans_type"`
	Type              string    `json:"type"`
	Options           []string  `json:"options"`
	CorrectOptions    []int     `json:"correct_options"`
	CorrectAns        []int     `json:"correct_ans"`
	CorrectMin        *float64  `json:"correct_min"`
	CorrectMax        *float64  `json:"correct_max"`
	CorrectNumRange   []float64 `json:"correct_num_range"`
	Marks             int       `json:"marks"`
}

type CreateQuizRequest struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	ChapterID   int64                   `json:"chapter_id"`
	TimeLimit   *int                    `json:"time_limit"`
	TotalMarks  *int                    `json:"total_marks"`
	Questions   []CreateQuestionRequest `json:"questions"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// toQuestion validates one question of a quiz. n is its 1-based position.
func (req CreateQuestionRequest) toQuestion(n int) (model.Question, error) {
	invalid := func(format string, args ...interface{}) error {
		return common.NewError(common.ErrValidation, "Question %d: %s", n, fmt.Sprintf(format, args...))
	}

	q := model.Question{
		QuestionStatement: firstNonEmpty(req.QuestionStatement, req.Question),
		AnsType:           model.AnswerType(strings.ToLower(firstNonEmpty(req.AnsType, req.Type))),
		Options:           req.Options,
		Marks:             req.Marks,
	}
	if q.QuestionStatement == "" {
		return q, invalid("question_statement is required")
	}
	if !q.AnsType.Valid() {
		return q, invalid("ans_type must be one of single, multiple, numeric")
	}
	if q.Marks <= 0 {
		return q, invalid("marks must be positive")
	}

	correct := req.CorrectOptions
	if len(correct) == 0 {
		correct = req.CorrectAns
	}

	switch q.AnsType {
	case model.AnswerTypeSingle, model.AnswerTypeMultiple:
		if len(q.Options) < 2 {
			return q, invalid("at least two options are required")
		}
		for i, opt := range q.Options {
			if strings.TrimSpace(opt) == "" {
				return q, invalid("option %d is empty", i)
			}
		}
		set := model.MultipleChoice(correct...)
		if set.IsEmpty() {
			return q, invalid("correct_options is required")
		}
		if err := set.ValidateFor(&q); err != nil {
			return q, invalid("%v", err)
		}
		if q.AnsType == model.AnswerTypeSingle && len(set.Indices) != 1 {
			return q, invalid("single choice questions take exactly one correct option")
		}
		q.CorrectOptions = set.Indices
	case model.AnswerTypeNumeric:
		minV, maxV := req.CorrectMin, req.CorrectMax
		if minV == nil && maxV == nil && len(req.CorrectNumRange) == 2 {
			minV, maxV = &req.CorrectNumRange[0], &req.CorrectNumRange[1]
		}
		if minV == nil || maxV == nil {
			return q, invalid("correct_min and correct_max are required")
		}
		if *minV > *maxV {
			return q, invalid("correct_min must not exceed correct_max")
		}
		q.Options = []string{}
		q.CorrectMin, q.CorrectMax = minV, maxV
	}
	return q, nil
}

func (s *QuizService) ListQuizzes(ctx context.Context, withAnswers bool) ([]model.Quiz, error) {
	quizzes, err := s.quizRepo.ListQuizzes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}
	if len(quizzes) == 0 {
		return nil, common.NewError(common.ErrNotFound, "No quizzes found")
	}
	return s.reader.fillQuizzes(ctx, quizzes, withAnswers)
}

func (s *QuizService) GetQuiz(ctx context.Context, id int64, withAnswers bool) (*model.Quiz, error) {
	quiz, err := s.quizRepo.FindQuizByID(ctx, nil, id)
	if err != nil {
		return nil, wrapNotFound(err, "Quiz", id)
	}
	if quiz.Questions, err = s.reader.questionsOf(ctx, id, withAnswers); err != nil {
		return nil, fmt.Errorf("failed to load questions of quiz %d: %w", id, err)
	}
	return quiz, nil
}

// CreateQuiz validates every question up front and inserts the quiz with all
// of its questions in one transaction.
func (s *QuizService) CreateQuiz(ctx context.Context, req CreateQuizRequest) (*model.Quiz, error) {
	if err := requireFields("name", req.Name, "description", req.Description); err != nil {
		return nil, err
	}
	if req.ChapterID <= 0 {
		return nil, common.NewError(common.ErrBadRequest, "Missing required fields: chapter_id")
	}
	if len(req.Questions) == 0 {
		return nil, common.NewError(common.ErrBadRequest, "Quiz must have at least one question.")
	}
	if req.TimeLimit != nil && *req.TimeLimit <= 0 {
		return nil, common.NewError(common.ErrValidation, "time_limit must be a positive number of minutes")
	}

	questions := make([]model.Question, 0, len(req.Questions))
	sum := 0
	for i, qr := range req.Questions {
		q, err := qr.toQuestion(i + 1)
		if err != nil {
			return nil, err
		}
		sum += q.Marks
		questions = append(questions, q)
	}
	if req.TotalMarks != nil && *req.TotalMarks != sum {
		return nil, common.NewError(common.ErrValidation,
			"total_marks (%d) does not match the sum of question marks (%d)", *req.TotalMarks, sum)
	}

	quiz := &model.Quiz{
		ChapterID:   req.ChapterID,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		TotalMarks:  sum,
		TimeLimit:   req.TimeLimit,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if ok, err := s.chapterRepo.Exists(ctx, tx, req.ChapterID); err != nil {
		return nil, fmt.Errorf("failed to check chapter %d: %w", req.ChapterID, err)
	} else if !ok {
		return nil, notFound("Chapter", req.ChapterID)
	}
	if err := s.quizRepo.CreateQuiz(ctx, tx, quiz); err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}
	if err := s.quizRepo.AddQuestionsToQuiz(ctx, tx, quiz.ID, questions); err != nil {
		return nil, fmt.Errorf("failed to add questions: %w", err)
	}
	if err := commit(tx); err != nil {
		return nil, err
	}

	quiz.Questions = questions
	log.Printf("Quiz %d created in chapter %d with %d questions", quiz.ID, quiz.ChapterID, len(questions))
	return quiz, nil
}

// DeleteQuiz cascades to questions, attempts and responses.
func (s *QuizService) DeleteQuiz(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.quizRepo.DeleteQuiz(ctx, tx, id); err != nil {
		return wrapNotFound(err, "Quiz", id)
	}
	return commit(tx)
}

// ListQuestions lists every question, or those of one quiz when quizID is set.
func (s *QuizService) ListQuestions(ctx context.Context, quizID int64, withAnswers bool) ([]model.Question, error) {
	if quizID != 0 {
		if _, err := s.quizRepo.FindQuizByID(ctx, nil, quizID); err != nil {
			return nil, wrapNotFound(err, "Quiz", quizID)
		}
	}
	questions, err := s.quizRepo.ListQuestions(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	if quizID == 0 && len(questions) == 0 {
		return nil, common.NewError(common.ErrNotFound, "No questions found")
	}
	return projectQuestions(questions, withAnswers), nil
}

// DeleteQuestion removes the question and its responses and re-derives the
// owning quiz's total marks.
func (s *QuizService) DeleteQuestion(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	quizID, err := s.quizRepo.DeleteQuestion(ctx, tx, id)
	if err != nil {
		return wrapNotFound(err, "Question", id)
	}
	if err := s.quizRepo.RecalculateTotalMarks(ctx, tx, quizID); err != nil {
		return err
	}
	return commit(tx)
}
