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

type SubjectService struct {
	subjectRepo repository.SubjectRepository
	reader      catalogReader
	db          *database.DB
}

func NewSubjectService(
	subjectRepo repository.SubjectRepository,
	chapterRepo repository.ChapterRepository,
	quizRepo repository.QuizRepository,
	db *database.DB,
) *SubjectService {
	return &SubjectService{
		subjectRepo: subjectRepo,
		reader:      catalogReader{chapterRepo: chapterRepo, quizRepo: quizRepo},
		db:          db,
	}
}

type CreateSubjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

func (s *SubjectService) ListSubjects(ctx context.Context, withAnswers bool) ([]model.Subject, error) {
	subjects, err := s.subjectRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}
	if len(subjects) == 0 {
		return nil, common.NewError(common.ErrNotFound, "No subjects found")
	}
	for i := range subjects {
		if subjects[i].Chapters, err = s.reader.chaptersOf(ctx, subjects[i].ID, withAnswers); err != nil {
			return nil, fmt.Errorf("failed to load chapters of subject %d: %w", subjects[i].ID, err)
		}
	}
	return subjects, nil
}

func (s *SubjectService) GetSubject(ctx context.Context, id int64, withAnswers bool) (*model.Subject, error) {
	subject, err := s.subjectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, "Subject", id)
	}
	if subject.Chapters, err = s.reader.chaptersOf(ctx, id, withAnswers); err != nil {
		return nil, fmt.Errorf("failed to load chapters of subject %d: %w", id, err)
	}
	return subject, nil
}

// ListSubjectChapters returns the chapters linked to a subject, possibly none.
func (s *SubjectService) ListSubjectChapters(ctx context.Context, id int64, withAnswers bool) ([]model.Chapter, error) {
	if ok, err := s.subjectRepo.Exists(ctx, nil, id); err != nil {
		return nil, fmt.Errorf("failed to check subject %d: %w", id, err)
	} else if !ok {
		return nil, notFound("Subject", id)
	}
	chapters, err := s.reader.chaptersOf(ctx, id, withAnswers)
	if err != nil {
		return nil, fmt.Errorf("failed to load chapters of subject %d: %w", id, err)
	}
	return chapters, nil
}

func (s *SubjectService) CreateSubject(ctx context.Context, req CreateSubjectRequest) (*model.Subject, error) {
	if err := requireFields("name", req.Name, "description", req.Description, "image_url", req.ImageURL); err != nil {
		return nil, err
	}
	subject := &model.Subject{
		Name:        strings.TrimSpace(req.Name),
		Slug:        nameSlug(req.Name),
		Description: strings.TrimSpace(req.Description),
		ImageURL:    strings.TrimSpace(req.ImageURL),
		Chapters:    []model.Chapter{},
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.subjectRepo.Create(ctx, tx, subject); err != nil {
		return nil, fmt.Errorf("failed to create subject: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	log.Printf("Subject %d (%s) created", subject.ID, subject.Slug)
	return subject, nil
}

// DeleteSubject removes the subject and its chapter links; chapters survive.
func (s *SubjectService) DeleteSubject(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.subjectRepo.Delete(ctx, tx, id); err != nil {
		return wrapNotFound(err, "Subject", id)
	}
	return commit(tx)
}
