package grading

import (
	"testing"

	"quizmaster/internal/domain/model"
)

func floatPtr(v float64) *float64 { return &v }

func TestGradeSingleChoice(t *testing.T) {
	g := NewDefaultGrader()
	q := &model.Question{AnsType: model.AnswerTypeSingle, Options: []string{"a", "b", "c"}, CorrectOptions: []int{1}, Marks: 4}

	cases := []struct {
		name   string
		answer model.Answer
		want   bool
	}{
		{"correct index", model.SingleChoice(1), true},
		{"wrong index", model.SingleChoice(2), false},
		{"no answer", model.NoAnswer(), false},
		{"numeric shape", model.Numeric(1), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := g.Grade(q, tc.answer)
			if err != nil {
				t.Fatalf("Grade returned error: %v", err)
			}
			if res.Correct != tc.want {
				t.Fatalf("Correct = %v, want %v", res.Correct, tc.want)
			}
			wantPoints := 0
			if tc.want {
				wantPoints = 4
			}
			if res.Points != wantPoints || res.MaxPoints != 4 {
				t.Fatalf("points = %d/%d, want %d/4", res.Points, res.MaxPoints, wantPoints)
			}
		})
	}
}

func TestGradeMultipleChoiceIsAllOrNothing(t *testing.T) {
	g := NewDefaultGrader()
	q := &model.Question{AnsType: model.AnswerTypeMultiple, Options: []string{"a", "b", "c", "d"}, CorrectOptions: []int{0, 2}, Marks: 3}

	cases := []struct {
		name   string
		answer model.Answer
		want   bool
	}{
		{"exact set", model.MultipleChoice(2, 0), true},
		{"duplicates collapse", model.MultipleChoice(0, 2, 2), true},
		{"subset", model.MultipleChoice(0), false},
		{"superset", model.MultipleChoice(0, 1, 2), false},
		{"disjoint", model.MultipleChoice(1, 3), false},
		{"empty", model.MultipleChoice(), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := g.Grade(q, tc.answer)
			if err != nil {
				t.Fatalf("Grade returned error: %v", err)
			}
			if res.Correct != tc.want {
				t.Fatalf("Correct = %v, want %v", res.Correct, tc.want)
			}
		})
	}
}

func TestGradeNumericRangeIsInclusive(t *testing.T) {
	g := NewDefaultGrader()
	q := &model.Question{AnsType: model.AnswerTypeNumeric, CorrectMin: floatPtr(9.5), CorrectMax: floatPtr(10.5), Marks: 2}

	cases := []struct {
		value float64
		want  bool
	}{
		{9.5, true},
		{10, true},
		{10.5, true},
		{9.49, false},
		{10.51, false},
	}
	for _, tc := range cases {
		res, err := g.Grade(q, model.Numeric(tc.value))
		if err != nil {
			t.Fatalf("Grade(%v) returned error: %v", tc.value, err)
		}
		if res.Correct != tc.want {
			t.Fatalf("Grade(%v).Correct = %v, want %v", tc.value, res.Correct, tc.want)
		}
	}

	res, _ := g.Grade(q, model.NoAnswer())
	if res.Correct {
		t.Fatalf("no answer must never be correct")
	}
}

func TestGradeNumericWithoutRangeIsWrong(t *testing.T) {
	g := NewDefaultGrader()
	q := &model.Question{AnsType: model.AnswerTypeNumeric, Marks: 1}
	res, err := g.Grade(q, model.Numeric(1))
	if err != nil {
		t.Fatalf("Grade returned error: %v", err)
	}
	if res.Correct {
		t.Fatalf("expected incorrect when range is missing")
	}
}

func TestGradeUnknownTypeFails(t *testing.T) {
	g := NewDefaultGrader()
	q := &model.Question{AnsType: "essay", Marks: 5}
	if _, err := g.Grade(q, model.Numeric(1)); err == nil {
		t.Fatalf("expected error for unknown answer type")
	}
}
