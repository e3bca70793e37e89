package service

import (
	"context"
	"encoding/json"
	"testing"

	"quizmaster/internal/common"
	"quizmaster/internal/domain/model"
)

func answers(quiz *model.Quiz, raw ...string) SubmitAttemptRequest {
	req := SubmitAttemptRequest{}
	for i, r := range raw {
		req.Responses = append(req.Responses, SubmittedResponse{
			QuestionID: quiz.Questions[i].ID,
			Answer:     json.RawMessage(r),
		})
	}
	return req
}

func TestRecordAttemptNumbersSequentially(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.register(t, "Student", "s@x.com")
	quiz := env.seedQuiz(t, "Kinematics")

	for want := 1; want <= 3; want++ {
		attempt, err := env.attempts.RecordAttempt(ctx, quiz.ID, student.ID, answers(quiz, `[1]`))
		if err != nil {
			t.Fatalf("RecordAttempt #%d: %v", want, err)
		}
		if attempt.AttemptNumber != want {
			t.Fatalf("attempt number = %d, want %d", attempt.AttemptNumber, want)
		}
	}

	// Numbering is per student.
	other := env.register(t, "Other", "o@x.com")
	attempt, err := env.attempts.RecordAttempt(ctx, quiz.ID, other.ID, answers(quiz, `[0]`))
	if err != nil {
		t.Fatalf("RecordAttempt for other student: %v", err)
	}
	if attempt.AttemptNumber != 1 {
		t.Fatalf("other student's first attempt numbered %d", attempt.AttemptNumber)
	}

	list, err := env.attempts.ListAttempts(ctx, student, student.ID, quiz.ID)
	if err != nil {
		t.Fatalf("ListAttempts: %v", err)
	}
	if len(list) != 3 || list[0].AttemptNumber != 3 || list[2].AttemptNumber != 1 {
		t.Fatalf("attempts not listed newest first: %+v", list)
	}
}

func TestRecordAttemptGradesAndScores(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.register(t, "Student", "s@x.com")
	quiz := env.seedQuiz(t, "Kinematics")

	attempt, err := env.attempts.RecordAttempt(ctx, quiz.ID, student.ID, answers(quiz, `[1]`, `[2, 0]`, `10`))
	if err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}
	if attempt.Score != 10 {
		t.Fatalf("score = %d, want 10", attempt.Score)
	}
	for _, r := range attempt.Responses {
		if !r.IsCorrect {
			t.Fatalf("response for question %d not marked correct", r.QuestionID)
		}
	}

	attempt, err = env.attempts.RecordAttempt(ctx, quiz.ID, student.ID, answers(quiz, `[0]`, `[0]`, `"10.2"`))
	if err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}
	if attempt.Score != 5 {
		t.Fatalf("score = %d, want 5 (numeric only)", attempt.Score)
	}

	stored, err := env.attempts.GetAttemptResponses(ctx, quiz.ID, student.ID, 0)
	if err != nil {
		t.Fatalf("GetAttemptResponses: %v", err)
	}
	if stored.AttemptNumber != 2 || stored.Score != 5 || len(stored.Responses) != 3 {
		t.Fatalf("latest attempt = %+v", stored)
	}
	if got := stored.Responses[2].Answer; got.Kind != model.AnswerNumeric || got.Value != 10.2 {
		t.Fatalf("stored numeric answer = %+v", got)
	}
	if stored.Responses[0].IsCorrect || stored.Responses[1].IsCorrect || !stored.Responses[2].IsCorrect {
		t.Fatalf("stored correctness = %+v", stored.Responses)
	}

	first, err := env.attempts.GetAttemptResponses(ctx, quiz.ID, student.ID, 1)
	if err != nil {
		t.Fatalf("GetAttemptResponses(1): %v", err)
	}
	if first.Score != 10 {
		t.Fatalf("first attempt score = %d", first.Score)
	}

	if len(env.observed.scores) != 2 || env.observed.scores[0] != 10 || env.observed.scores[1] != 5 {
		t.Fatalf("observer saw %v", env.observed.scores)
	}
}

func TestRecordAttemptEmptyAnswersAreNotCorrect(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.register(t, "Student", "s@x.com")
	quiz := env.seedQuiz(t, "Kinematics")

	attempt, err := env.attempts.RecordAttempt(ctx, quiz.ID, student.ID, answers(quiz, `[]`, `null`, `""`))
	if err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}
	if attempt.Score != 0 {
		t.Fatalf("score = %d, want 0", attempt.Score)
	}
	for _, r := range attempt.Responses {
		if !r.Answer.IsEmpty() || r.IsCorrect {
			t.Fatalf("expected empty incorrect response, got %+v", r)
		}
	}
}

func TestRecordAttemptAcceptsQuestionFromAnotherQuiz(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.register(t, "Student", "s@x.com")
	quizA := env.seedQuiz(t, "A")
	quizB := env.seedQuiz(t, "B")

	req := SubmitAttemptRequest{Responses: []SubmittedResponse{
		{QuestionID: quizB.Questions[0].ID, Answer: json.RawMessage(`[1]`)},
	}}
	attempt, err := env.attempts.RecordAttempt(ctx, quizA.ID, student.ID, req)
	if err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}
	if attempt.QuizID != quizA.ID || len(attempt.Responses) != 1 || attempt.Responses[0].QuestionID != quizB.Questions[0].ID {
		t.Fatalf("unexpected attempt %+v", attempt)
	}
	if countRows(t, env.db, "responses") != 1 {
		t.Fatalf("cross-quiz response not persisted")
	}
}

func TestRecordAttemptFailuresPersistNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.register(t, "Student", "s@x.com")
	quiz := env.seedQuiz(t, "Kinematics")

	cases := []struct {
		name string
		quiz int64
		req  SubmitAttemptRequest
		kind error
	}{
		{"no responses", quiz.ID, SubmitAttemptRequest{}, common.ErrBadRequest},
		{"unknown quiz", 9999, answers(quiz, `[1]`), common.ErrNotFound},
		{"unknown question", quiz.ID, SubmitAttemptRequest{Responses: []SubmittedResponse{
			{QuestionID: quiz.Questions[0].ID, Answer: json.RawMessage(`[1]`)},
			{QuestionID: 9999, Answer: json.RawMessage(`[1]`)},
		}}, common.ErrNotFound},
		{"option out of range", quiz.ID, answers(quiz, `[1]`, `[0, 7]`), common.ErrValidation},
		{"list for numeric", quiz.ID, answers(quiz, `[1]`, `[0]`, `[1, 2]`), common.ErrValidation},
		{"NaN for numeric", quiz.ID, answers(quiz, `[1]`, `[0]`, `"NaN"`), common.ErrValidation},
		{"Inf for numeric", quiz.ID, answers(quiz, `[1]`, `[0]`, `"Inf"`), common.ErrValidation},
		{"-Infinity for numeric", quiz.ID, answers(quiz, `[1]`, `[0]`, `"-Infinity"`), common.ErrValidation},
		{"huge option index", quiz.ID, answers(quiz, `[1e20]`), common.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.attempts.RecordAttempt(ctx, tc.quiz, student.ID, tc.req)
			assertKind(t, err, tc.kind)
		})
	}

	if n := countRows(t, env.db, "attempts"); n != 0 {
		t.Fatalf("%d attempts persisted after failures", n)
	}
	if n := countRows(t, env.db, "responses"); n != 0 {
		t.Fatalf("%d responses persisted after failures", n)
	}
}

func TestListAttemptsIsOwnerOrAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.register(t, "Student", "s@x.com")
	other := env.register(t, "Other", "o@x.com")
	quiz := env.seedQuiz(t, "Kinematics")

	_, err := env.attempts.ListAttempts(ctx, other, student.ID, quiz.ID)
	assertKind(t, err, common.ErrForbidden)

	admin := &model.User{ID: 999, Roles: []string{model.RoleAdmin}}
	list, err := env.attempts.ListAttempts(ctx, admin, student.ID, quiz.ID)
	if err != nil {
		t.Fatalf("admin ListAttempts: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", list)
	}
}

func TestDeleteAttemptRemovesResponses(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.register(t, "Student", "s@x.com")
	quiz := env.seedQuiz(t, "Kinematics")

	attempt, err := env.attempts.RecordAttempt(ctx, quiz.ID, student.ID, answers(quiz, `[1]`, `[0]`))
	if err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}
	if err := env.attempts.DeleteAttempt(ctx, attempt.ID); err != nil {
		t.Fatalf("DeleteAttempt: %v", err)
	}
	if countRows(t, env.db, "responses") != 0 {
		t.Fatalf("responses survived attempt delete")
	}
	assertKind(t, env.attempts.DeleteAttempt(ctx, attempt.ID), common.ErrNotFound)

	_, err = env.attempts.GetAttemptResponses(ctx, quiz.ID, student.ID, 0)
	assertKind(t, err, common.ErrNotFound)
}
