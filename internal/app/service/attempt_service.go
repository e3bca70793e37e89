package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"quizmaster/internal/app/grading"
	"quizmaster/internal/common"
	"quizmaster/internal/domain/model"
	"quizmaster/internal/domain/repository"
	"quizmaster/internal/platform/database"
)

// AttemptObserver is told about every committed attempt.
type AttemptObserver interface {
	ObserveAttempt(score, totalMarks int)
}

type AttemptService struct {
	attemptRepo repository.AttemptRepository
	quizRepo    repository.QuizRepository
	grader      grading.Grader
	observer    AttemptObserver
	db          *database.DB
	now         func() time.Time
}

func NewAttemptService(
	attemptRepo repository.AttemptRepository,
	quizRepo repository.QuizRepository,
	grader grading.Grader,
	observer AttemptObserver,
	db *database.DB,
) *AttemptService {
	if grader == nil {
		grader = grading.NewDefaultGrader()
	}
	return &AttemptService{
		attemptRepo: attemptRepo,
		quizRepo:    quizRepo,
		grader:      grader,
		observer:    observer,
		db:          db,
		now:         time.Now,
	}
}

// SubmittedResponse is one answer as sent by the client. Answer stays raw
// until the question's type is known.
type SubmittedResponse struct {
	QuestionID int64           `json:"question_id"`
	Answer     json.RawMessage `json:"answer"`
}

type SubmitAttemptRequest struct {
	Responses []SubmittedResponse `json:"responses"`
}

// RecordAttempt stores a new numbered attempt with one response per submitted
// answer, grades it and commits everything as one unit.
func (s *AttemptService) RecordAttempt(ctx context.Context, quizID, studentID int64, req SubmitAttemptRequest) (*model.Attempt, error) {
	if len(req.Responses) == 0 {
		return nil, common.NewError(common.ErrBadRequest, "No responses submitted")
	}

	tx, err := s.db.BeginTx(ctx, s.db.SerializableTx())
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	quiz, err := s.quizRepo.FindQuizByID(ctx, tx, quizID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewError(common.ErrNotFound, "Quiz does not exist")
		}
		return nil, fmt.Errorf("failed to load quiz %d: %w", quizID, err)
	}

	// Questions from other quizzes are accepted as submitted.
	questions := make(map[int64]*model.Question, len(req.Responses))
	answers := make([]model.Answer, len(req.Responses))
	for i, sub := range req.Responses {
		q, ok := questions[sub.QuestionID]
		if !ok {
			q, err = s.quizRepo.FindQuestionByID(ctx, tx, sub.QuestionID)
			if err != nil {
				if errors.Is(err, common.ErrNotFound) {
					return nil, common.NewError(common.ErrNotFound, "Question %d does not exist", sub.QuestionID)
				}
				return nil, fmt.Errorf("failed to load question %d: %w", sub.QuestionID, err)
			}
			questions[sub.QuestionID] = q
		}
		answer, err := model.ParseAnswer(sub.Answer, q.AnsType)
		if err != nil {
			return nil, common.NewError(common.ErrValidation, "Question %d: %v", q.ID, err)
		}
		if err := answer.ValidateFor(q); err != nil {
			return nil, common.NewError(common.ErrValidation, "Question %d: %v", q.ID, err)
		}
		answers[i] = answer
	}

	number, err := s.attemptRepo.NextAttemptNumber(ctx, tx, studentID, quizID)
	if err != nil {
		return nil, err
	}
	attempt := &model.Attempt{
		StudentID:     studentID,
		QuizID:        quizID,
		AttemptNumber: number,
		AttemptDate:   s.now().UTC().Truncate(time.Second),
	}
	if err := s.attemptRepo.CreateAttempt(ctx, tx, attempt); err != nil {
		return nil, err
	}

	attempt.Responses = make([]model.Response, 0, len(req.Responses))
	for i, sub := range req.Responses {
		resp := model.Response{AttemptID: attempt.ID, QuestionID: sub.QuestionID, Answer: answers[i]}
		if err := s.attemptRepo.CreateResponse(ctx, tx, &resp); err != nil {
			return nil, err
		}
		attempt.Responses = append(attempt.Responses, resp)
	}

	if err := s.grade(ctx, tx, attempt, questions); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		if database.IsSerializationFailure(err) || database.IsUniqueViolation(err) {
			return nil, common.NewError(common.ErrConflict, "Attempt %d was recorded concurrently, please resubmit", number)
		}
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if s.observer != nil {
		s.observer.ObserveAttempt(attempt.Score, quiz.TotalMarks)
	}
	log.Printf("Attempt %d on quiz %d by user %d recorded: score %d/%d",
		attempt.AttemptNumber, quizID, studentID, attempt.Score, quiz.TotalMarks)
	return attempt, nil
}

// grade marks each stored response and writes the attempt score.
func (s *AttemptService) grade(ctx context.Context, tx *sql.Tx, attempt *model.Attempt, questions map[int64]*model.Question) error {
	score := 0
	for i := range attempt.Responses {
		resp := &attempt.Responses[i]
		res, err := s.grader.Grade(questions[resp.QuestionID], resp.Answer)
		if err != nil {
			return fmt.Errorf("failed to grade response %d: %w", resp.ID, err)
		}
		if !res.Correct {
			continue
		}
		resp.IsCorrect = true
		score += res.Points
		if err := s.attemptRepo.SetResponseCorrect(ctx, tx, resp.ID, true); err != nil {
			return err
		}
	}
	attempt.Score = score
	return s.attemptRepo.UpdateScore(ctx, tx, attempt.ID, score)
}

// GetAttemptResponses returns the student's latest attempt on a quiz, or the
// given attempt number when it is positive, with its responses.
func (s *AttemptService) GetAttemptResponses(ctx context.Context, quizID, studentID int64, attemptNumber int) (*model.Attempt, error) {
	var (
		attempt *model.Attempt
		err     error
	)
	if attemptNumber > 0 {
		attempt, err = s.attemptRepo.FindAttemptByNumber(ctx, studentID, quizID, attemptNumber)
	} else {
		attempt, err = s.attemptRepo.FindLatestAttempt(ctx, studentID, quizID)
	}
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewError(common.ErrNotFound, "No attempt found for quiz %d", quizID)
		}
		return nil, fmt.Errorf("failed to load attempt: %w", err)
	}
	if attempt.Responses, err = s.attemptRepo.ListResponses(ctx, attempt.ID); err != nil {
		return nil, fmt.Errorf("failed to load responses: %w", err)
	}
	return attempt, nil
}

// ListAttempts lists a student's attempts on a quiz, newest first. Users may
// only see their own attempts.
func (s *AttemptService) ListAttempts(ctx context.Context, caller *model.User, studentID, quizID int64) ([]model.Attempt, error) {
	if caller == nil || (caller.ID != studentID && !caller.HasAnyRole(model.RoleAdmin)) {
		return nil, common.NewError(common.ErrForbidden, "You can only view your own attempts")
	}
	attempts, err := s.attemptRepo.ListAttempts(ctx, studentID, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	return attempts, nil
}

func (s *AttemptService) DeleteAttempt(ctx context.Context, id int64) error {
	attempt, err := s.attemptRepo.FindAttemptByID(ctx, id)
	if err != nil {
		return wrapNotFound(err, "Attempt", id)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.attemptRepo.DeleteAttempt(ctx, tx, id); err != nil {
		return wrapNotFound(err, "Attempt", id)
	}
	if err := commit(tx); err != nil {
		return err
	}
	log.Printf("Attempt %d (#%d on quiz %d by user %d) deleted", id, attempt.AttemptNumber, attempt.QuizID, attempt.StudentID)
	return nil
}
