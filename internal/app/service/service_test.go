package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"quizmaster/internal/app/grading"
	"quizmaster/internal/common/security"
	"quizmaster/internal/domain/model"
	"quizmaster/internal/domain/repository"
	"quizmaster/internal/platform/config"
	"quizmaster/internal/platform/database"
)

type testEnv struct {
	db       *database.DB
	users    repository.UserRepository
	auth     *AuthService
	subjects *SubjectService
	chapters *ChapterService
	quizzes  *QuizService
	attempts *AttemptService
	observed *recordingObserver
	limiter  *memoryLimiter
}

type recordingObserver struct {
	mu     sync.Mutex
	scores []int
}

func (o *recordingObserver) ObserveAttempt(score, _ int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.scores = append(o.scores, score)
}

// memoryLimiter blocks after max failures, like the Redis limiter.
type memoryLimiter struct {
	max      int
	failures map[string]int
}

func (l *memoryLimiter) Blocked(_ context.Context, email string) (bool, error) {
	return l.failures[email] >= l.max, nil
}

func (l *memoryLimiter) Fail(_ context.Context, email string) error {
	l.failures[email]++
	return nil
}

func (l *memoryLimiter) Reset(_ context.Context, email string) error {
	delete(l.failures, email)
	return nil
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	config.AppConfig = config.FromEnv()
	config.AppConfig.JWTKey = []byte("test-secret")
	security.InitJWT()

	ctx := context.Background()
	db, err := database.Open(ctx, config.DriverSQLite, config.SQLiteDSN(filepath.Join(t.TempDir(), "quiz.db")))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(db.Close)

	users := repository.NewUserRepository(db)
	subjects := repository.NewSubjectRepository(db)
	chapters := repository.NewChapterRepository(db)
	quizzes := repository.NewQuizRepository(db)
	attempts := repository.NewAttemptRepository(db)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	for _, role := range []string{model.RoleAdmin, model.RoleUser} {
		if _, err := users.FindOrCreateRole(ctx, tx, role, role); err != nil {
			t.Fatalf("create role %s: %v", role, err)
		}
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit roles: %v", err)
	}

	env := &testEnv{
		db:       db,
		users:    users,
		observed: &recordingObserver{},
		limiter:  &memoryLimiter{max: 3, failures: map[string]int{}},
	}
	env.auth = NewAuthService(users, env.limiter, db)
	env.subjects = NewSubjectService(subjects, chapters, quizzes, db)
	env.chapters = NewChapterService(chapters, subjects, quizzes, db)
	env.quizzes = NewQuizService(quizzes, chapters, db)
	env.attempts = NewAttemptService(attempts, quizzes, grading.NewDefaultGrader(), env.observed, db)
	return env
}

func (e *testEnv) register(t *testing.T, name, email string) *model.User {
	t.Helper()
	u, err := e.auth.Register(context.Background(), RegisterRequest{Name: name, Email: email, Password: "secret"})
	if err != nil {
		t.Fatalf("Register(%s): %v", email, err)
	}
	return u
}

func floatPtr(v float64) *float64 { return &v }

// seedQuiz creates subject > chapter > quiz with one question of each type:
// single (correct 1, 2 marks), multiple (correct 0 and 2, 3 marks), numeric
// (9.5..10.5, 5 marks).
func (e *testEnv) seedQuiz(t *testing.T, name string) *model.Quiz {
	t.Helper()
	ctx := context.Background()
	subject, err := e.subjects.CreateSubject(ctx, CreateSubjectRequest{Name: "Physics " + name, Description: "d", ImageURL: "http://img"})
	if err != nil {
		t.Fatalf("CreateSubject: %v", err)
	}
	chapter, err := e.chapters.CreateChapter(ctx, CreateChapterRequest{Name: "Motion", Description: "d", SubjectID: subject.ID})
	if err != nil {
		t.Fatalf("CreateChapter: %v", err)
	}
	quiz, err := e.quizzes.CreateQuiz(ctx, CreateQuizRequest{
		Name:        name,
		Description: "d",
		ChapterID:   chapter.ID,
		Questions: []CreateQuestionRequest{
			{QuestionStatement: "pick b", AnsType: "single", Options: []string{"a", "b", "c"}, CorrectOptions: []int{1}, Marks: 2},
			{QuestionStatement: "pick a and c", AnsType: "multiple", Options: []string{"a", "b", "c"}, CorrectOptions: []int{0, 2}, Marks: 3},
			{QuestionStatement: "g", Type: "numeric", CorrectNumRange: []float64{9.5, 10.5}, Marks: 5},
		},
	})
	if err != nil {
		t.Fatalf("CreateQuiz: %v", err)
	}
	return quiz
}

func assertKind(t *testing.T, err, kind error) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("error = %v, want kind %v", err, kind)
	}
}

func countRows(t *testing.T, db *database.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
