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

type ChapterService struct {
	chapterRepo repository.ChapterRepository
	subjectRepo repository.SubjectRepository
	reader      catalogReader
	db          *database.DB
}

func NewChapterService(
	chapterRepo repository.ChapterRepository,
	subjectRepo repository.SubjectRepository,
	quizRepo repository.QuizRepository,
	db *database.DB,
) *ChapterService {
	return &ChapterService{
		chapterRepo: chapterRepo,
		subjectRepo: subjectRepo,
		reader:      catalogReader{chapterRepo: chapterRepo, quizRepo: quizRepo},
		db:          db,
	}
}

type CreateChapterRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	SubjectID   int64  `json:"subject_id"`
}

func (s *ChapterService) ListChapters(ctx context.Context, withAnswers bool) ([]model.Chapter, error) {
	chapters, err := s.chapterRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	if len(chapters) == 0 {
		return nil, common.NewError(common.ErrNotFound, "No chapters found")
	}
	return s.reader.fillChapters(ctx, chapters, withAnswers)
}

func (s *ChapterService) GetChapter(ctx context.Context, id int64, withAnswers bool) (*model.Chapter, error) {
	chapter, err := s.chapterRepo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, "Chapter", id)
	}
	if chapter.Quizzes, err = s.reader.quizzesOf(ctx, id, withAnswers); err != nil {
		return nil, fmt.Errorf("failed to load quizzes of chapter %d: %w", id, err)
	}
	return chapter, nil
}

func (s *ChapterService) ListChapterQuizzes(ctx context.Context, id int64, withAnswers bool) ([]model.Quiz, error) {
	if ok, err := s.chapterRepo.Exists(ctx, nil, id); err != nil {
		return nil, fmt.Errorf("failed to check chapter %d: %w", id, err)
	} else if !ok {
		return nil, notFound("Chapter", id)
	}
	quizzes, err := s.reader.quizzesOf(ctx, id, withAnswers)
	if err != nil {
		return nil, fmt.Errorf("failed to load quizzes of chapter %d: %w", id, err)
	}
	return quizzes, nil
}

// CreateChapter inserts the chapter and links it to its subject in one
// transaction. Names are unique per subject.
func (s *ChapterService) CreateChapter(ctx context.Context, req CreateChapterRequest) (*model.Chapter, error) {
	if err := requireFields("name", req.Name, "description", req.Description); err != nil {
		return nil, err
	}
	if req.SubjectID <= 0 {
		return nil, common.NewError(common.ErrBadRequest, "Missing required fields: subject_id")
	}
	chapter := &model.Chapter{
		Name:        strings.TrimSpace(req.Name),
		Slug:        nameSlug(req.Name),
		Description: strings.TrimSpace(req.Description),
		Quizzes:     []model.Quiz{},
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if ok, err := s.subjectRepo.Exists(ctx, tx, req.SubjectID); err != nil {
		return nil, fmt.Errorf("failed to check subject %d: %w", req.SubjectID, err)
	} else if !ok {
		return nil, notFound("Subject", req.SubjectID)
	}
	taken, err := s.chapterRepo.SlugTakenInSubject(ctx, tx, req.SubjectID, chapter.Slug)
	if err != nil {
		return nil, fmt.Errorf("failed to check chapter name: %w", err)
	}
	if taken {
		return nil, common.NewError(common.ErrConflict, "Chapter %q already exists in this subject", chapter.Name)
	}

	if err := s.chapterRepo.Create(ctx, tx, chapter); err != nil {
		return nil, fmt.Errorf("failed to create chapter: %w", err)
	}
	if err := s.chapterRepo.LinkToSubject(ctx, tx, req.SubjectID, chapter.ID); err != nil {
		return nil, fmt.Errorf("failed to link chapter: %w", err)
	}
	if err := commit(tx); err != nil {
		return nil, err
	}
	log.Printf("Chapter %d created in subject %d", chapter.ID, req.SubjectID)
	return chapter, nil
}

func (s *ChapterService) DeleteChapter(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.chapterRepo.Delete(ctx, tx, id); err != nil {
		return wrapNotFound(err, "Chapter", id)
	}
	return commit(tx)
}
