package service

import (
	"context"
	"testing"

	"quizmaster/internal/common"
	"quizmaster/internal/domain/model"
)

func intPtr(v int) *int { return &v }

func TestCreateQuizStoresQuestionsAndTotals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := env.seedQuiz(t, "Kinematics")

	if quiz.TotalMarks != 10 {
		t.Fatalf("total marks = %d, want 10", quiz.TotalMarks)
	}
	stored, err := env.quizzes.GetQuiz(ctx, quiz.ID, true)
	if err != nil {
		t.Fatalf("GetQuiz: %v", err)
	}
	if len(stored.Questions) != 3 {
		t.Fatalf("stored %d questions, want 3", len(stored.Questions))
	}
	numeric := stored.Questions[2]
	if numeric.AnsType != model.AnswerTypeNumeric || numeric.CorrectMin == nil || *numeric.CorrectMin != 9.5 || *numeric.CorrectMax != 10.5 {
		t.Fatalf("numeric question not stored from legacy fields: %+v", numeric)
	}
	if got := stored.Questions[1].CorrectOptions; len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Fatalf("multiple choice key = %v", got)
	}
}

func TestCreateQuizWithTimeLimitAndDeclaredTotal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	base := env.seedQuiz(t, "Base")

	quiz, err := env.quizzes.CreateQuiz(ctx, CreateQuizRequest{
		Name:        "Timed",
		Description: "d",
		ChapterID:   base.ChapterID,
		TimeLimit:   intPtr(15),
		TotalMarks:  intPtr(4),
		Questions: []CreateQuestionRequest{
			{Question: "legacy field names", AnsType: "SINGLE", Options: []string{"x", "y"}, CorrectAns: []int{0}, Marks: 4},
		},
	})
	if err != nil {
		t.Fatalf("CreateQuiz: %v", err)
	}
	stored, err := env.quizzes.GetQuiz(ctx, quiz.ID, true)
	if err != nil {
		t.Fatalf("GetQuiz: %v", err)
	}
	if stored.TimeLimit == nil || *stored.TimeLimit != 15 || stored.TotalMarks != 4 {
		t.Fatalf("unexpected stored quiz %+v", stored)
	}
	if stored.Questions[0].QuestionStatement != "legacy field names" || stored.Questions[0].AnsType != model.AnswerTypeSingle {
		t.Fatalf("unexpected stored question %+v", stored.Questions[0])
	}
}

func TestCreateQuizRejectsInvalidInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	base := env.seedQuiz(t, "Base")
	before := countRows(t, env.db, "quizzes")

	valid := CreateQuestionRequest{QuestionStatement: "ok", AnsType: "single", Options: []string{"a", "b"}, CorrectOptions: []int{0}, Marks: 1}
	quiz := func(qs ...CreateQuestionRequest) CreateQuizRequest {
		return CreateQuizRequest{Name: "Broken", Description: "d", ChapterID: base.ChapterID, Questions: qs}
	}

	cases := []struct {
		name string
		req  CreateQuizRequest
		kind error
	}{
		{"missing name", CreateQuizRequest{Description: "d", ChapterID: base.ChapterID, Questions: []CreateQuestionRequest{valid}}, common.ErrBadRequest},
		{"missing chapter", CreateQuizRequest{Name: "n", Description: "d", Questions: []CreateQuestionRequest{valid}}, common.ErrBadRequest},
		{"no questions", quiz(), common.ErrBadRequest},
		{"unknown chapter", CreateQuizRequest{Name: "n", Description: "d", ChapterID: 9999, Questions: []CreateQuestionRequest{valid}}, common.ErrNotFound},
		{"zero time limit", CreateQuizRequest{Name: "n", Description: "d", ChapterID: base.ChapterID, TimeLimit: intPtr(0), Questions: []CreateQuestionRequest{valid}}, common.ErrValidation},
		{"total mismatch", CreateQuizRequest{Name: "n", Description: "d", ChapterID: base.ChapterID, TotalMarks: intPtr(3), Questions: []CreateQuestionRequest{valid}}, common.ErrValidation},
		{"bad type", quiz(valid, CreateQuestionRequest{QuestionStatement: "q", AnsType: "essay", Marks: 1}), common.ErrValidation},
		{"single with two keys", quiz(valid, CreateQuestionRequest{QuestionStatement: "q", AnsType: "single", Options: []string{"a", "b"}, CorrectOptions: []int{0, 1}, Marks: 1}), common.ErrValidation},
		{"key out of range", quiz(CreateQuestionRequest{QuestionStatement: "q", AnsType: "multiple", Options: []string{"a", "b"}, CorrectOptions: []int{2}, Marks: 1}), common.ErrValidation},
		{"one option", quiz(CreateQuestionRequest{QuestionStatement: "q", AnsType: "single", Options: []string{"a"}, CorrectOptions: []int{0}, Marks: 1}), common.ErrValidation},
		{"inverted range", quiz(CreateQuestionRequest{QuestionStatement: "q", AnsType: "numeric", CorrectMin: floatPtr(2), CorrectMax: floatPtr(1), Marks: 1}), common.ErrValidation},
		{"numeric without range", quiz(CreateQuestionRequest{QuestionStatement: "q", AnsType: "numeric", Marks: 1}), common.ErrValidation},
		{"zero marks", quiz(CreateQuestionRequest{QuestionStatement: "q", AnsType: "numeric", CorrectMin: floatPtr(1), CorrectMax: floatPtr(1), Marks: 0}), common.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.quizzes.CreateQuiz(ctx, tc.req)
			assertKind(t, err, tc.kind)
		})
	}

	if after := countRows(t, env.db, "quizzes"); after != before {
		t.Fatalf("quizzes went from %d to %d after rejected creates", before, after)
	}
	if n := countRows(t, env.db, "questions"); n != 3 {
		t.Fatalf("questions = %d, want only the 3 seeded", n)
	}
}

func TestDeleteQuestionRecalculatesTotalMarks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := env.seedQuiz(t, "Kinematics")

	if err := env.quizzes.DeleteQuestion(ctx, quiz.Questions[2].ID); err != nil {
		t.Fatalf("DeleteQuestion: %v", err)
	}
	stored, err := env.quizzes.GetQuiz(ctx, quiz.ID, false)
	if err != nil {
		t.Fatalf("GetQuiz: %v", err)
	}
	if stored.TotalMarks != 5 || len(stored.Questions) != 2 {
		t.Fatalf("after delete: total %d with %d questions, want 5 with 2", stored.TotalMarks, len(stored.Questions))
	}
	assertKind(t, env.quizzes.DeleteQuestion(ctx, quiz.Questions[2].ID), common.ErrNotFound)
}

func TestListQuestionsHidesAnswerKey(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := env.seedQuiz(t, "Kinematics")
	env.seedQuiz(t, "Other")

	public, err := env.quizzes.ListQuestions(ctx, quiz.ID, false)
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	if len(public) != 3 {
		t.Fatalf("got %d questions for quiz, want 3", len(public))
	}
	for _, q := range public {
		if q.CorrectOptions != nil || q.CorrectMin != nil || q.CorrectMax != nil {
			t.Fatalf("answer key leaked: %+v", q)
		}
	}

	all, err := env.quizzes.ListQuestions(ctx, 0, true)
	if err != nil {
		t.Fatalf("ListQuestions(all): %v", err)
	}
	if len(all) != 6 || all[0].CorrectOptions == nil {
		t.Fatalf("admin listing = %d questions, first %+v", len(all), all[0])
	}

	_, err = env.quizzes.ListQuestions(ctx, 9999, false)
	assertKind(t, err, common.ErrNotFound)
}

func TestDeleteQuizCascadesToAttempts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.register(t, "Student", "s@x.com")
	quiz := env.seedQuiz(t, "Kinematics")
	if _, err := env.attempts.RecordAttempt(ctx, quiz.ID, student.ID, answers(quiz, `[1]`, `[0, 2]`)); err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}

	if err := env.quizzes.DeleteQuiz(ctx, quiz.ID); err != nil {
		t.Fatalf("DeleteQuiz: %v", err)
	}
	for _, table := range []string{"quizzes", "questions", "attempts", "responses"} {
		if n := countRows(t, env.db, table); n != 0 {
			t.Fatalf("%s has %d rows after quiz delete", table, n)
		}
	}
	_, err := env.quizzes.ListQuizzes(ctx, false)
	assertKind(t, err, common.ErrNotFound)
	assertKind(t, env.quizzes.DeleteQuiz(ctx, quiz.ID), common.ErrNotFound)
}
