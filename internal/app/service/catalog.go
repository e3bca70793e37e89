package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"quizmaster/internal/common"
	"quizmaster/internal/domain/model"
	"quizmaster/internal/domain/repository"

	"github.com/gosimple/slug"
)

// catalogReader assembles the nested subject > chapter > quiz > question views.
// Each level is read after the previous cursor is closed.
type catalogReader struct {
	chapterRepo repository.ChapterRepository
	quizRepo    repository.QuizRepository
}

func (c catalogReader) chaptersOf(ctx context.Context, subjectID int64, withAnswers bool) ([]model.Chapter, error) {
	chapters, err := c.chapterRepo.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	return c.fillChapters(ctx, chapters, withAnswers)
}

func (c catalogReader) fillChapters(ctx context.Context, chapters []model.Chapter, withAnswers bool) ([]model.Chapter, error) {
	for i := range chapters {
		quizzes, err := c.quizzesOf(ctx, chapters[i].ID, withAnswers)
		if err != nil {
			return nil, err
		}
		chapters[i].Quizzes = quizzes
	}
	return chapters, nil
}

func (c catalogReader) quizzesOf(ctx context.Context, chapterID int64, withAnswers bool) ([]model.Quiz, error) {
	quizzes, err := c.quizRepo.ListQuizzesByChapter(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	return c.fillQuizzes(ctx, quizzes, withAnswers)
}

func (c catalogReader) fillQuizzes(ctx context.Context, quizzes []model.Quiz, withAnswers bool) ([]model.Quiz, error) {
	for i := range quizzes {
		questions, err := c.questionsOf(ctx, quizzes[i].ID, withAnswers)
		if err != nil {
			return nil, err
		}
		quizzes[i].Questions = questions
	}
	return quizzes, nil
}

func (c catalogReader) questionsOf(ctx context.Context, quizID int64, withAnswers bool) ([]model.Question, error) {
	questions, err := c.quizRepo.ListQuestions(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return projectQuestions(questions, withAnswers), nil
}

func projectQuestions(questions []model.Question, withAnswers bool) []model.Question {
	if withAnswers {
		return questions
	}
	for i := range questions {
		questions[i] = questions[i].Public()
	}
	return questions
}

// nameSlug is the key names are compared on: "Physics" and " physics " collide.
func nameSlug(name string) string {
	if s := slug.Make(name); s != "" {
		return s
	}
	return strings.ToLower(strings.TrimSpace(name))
}

// requireFields reports empty fields in the order given as name/value pairs.
func requireFields(pairs ...string) error {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			missing = append(missing, pairs[i])
		}
	}
	if len(missing) > 0 {
		return common.NewError(common.ErrBadRequest, "Missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

func notFound(entity string, id int64) error {
	return common.NewError(common.ErrNotFound, "%s %d does not exist", entity, id)
}

func wrapNotFound(err error, entity string, id int64) error {
	if errors.Is(err, common.ErrNotFound) {
		return notFound(entity, id)
	}
	return fmt.Errorf("%s %d: %w", strings.ToLower(entity), id, err)
}

func commit(tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
