// Package grading scores individual responses against a question's answer key.
package grading

import (
	"fmt"

	"quizmaster/internal/domain/model"
)

// Result is the outcome of grading one response.
type Result struct {
	Correct   bool
	Points    int
	MaxPoints int
}

// Strategy grades answers of one question type.
type Strategy interface {
	Grade(q *model.Question, a model.Answer) Result
}

// Grader routes by ans_type to the matching Strategy.
type Grader interface {
	Grade(q *model.Question, a model.Answer) (Result, error)
}

type defaultGrader struct {
	strategies map[model.AnswerType]Strategy
}

// NewDefaultGrader installs the built-in strategies for single, multiple and
// numeric questions.
func NewDefaultGrader() Grader {
	return &defaultGrader{
		strategies: map[model.AnswerType]Strategy{
			model.AnswerTypeSingle:   singleChoiceStrategy{},
			model.AnswerTypeMultiple: multipleChoiceStrategy{},
			model.AnswerTypeNumeric:  numericRangeStrategy{},
		},
	}
}

func (g *defaultGrader) Grade(q *model.Question, a model.Answer) (Result, error) {
	s, ok := g.strategies[q.AnsType]
	if !ok {
		return Result{MaxPoints: q.Marks}, fmt.Errorf("no grading strategy for answer type %q", q.AnsType)
	}
	if a.IsEmpty() {
		return Result{MaxPoints: q.Marks}, nil
	}
	return s.Grade(q, a), nil
}

func award(q *model.Question, correct bool) Result {
	res := Result{Correct: correct, MaxPoints: q.Marks}
	if correct {
		res.Points = q.Marks
	}
	return res
}

type singleChoiceStrategy struct{}

func (singleChoiceStrategy) Grade(q *model.Question, a model.Answer) Result {
	if a.Kind != model.AnswerSingle {
		return award(q, false)
	}
	for _, c := range q.CorrectOptions {
		if c == a.Index {
			return award(q, true)
		}
	}
	return award(q, false)
}

// multipleChoiceStrategy is all-or-nothing: the chosen set must equal the key.
type multipleChoiceStrategy struct{}

func (multipleChoiceStrategy) Grade(q *model.Question, a model.Answer) Result {
	if a.Kind != model.AnswerMultiple {
		return award(q, false)
	}
	key := toSet(q.CorrectOptions)
	chosen := toSet(a.Indices)
	if len(key) != len(chosen) {
		return award(q, false)
	}
	for i := range chosen {
		if _, ok := key[i]; !ok {
			return award(q, false)
		}
	}
	return award(q, true)
}

type numericRangeStrategy struct{}

func (numericRangeStrategy) Grade(q *model.Question, a model.Answer) Result {
	if a.Kind != model.AnswerNumeric || q.CorrectMin == nil || q.CorrectMax == nil {
		return award(q, false)
	}
	return award(q, *q.CorrectMin <= a.Value && a.Value <= *q.CorrectMax)
}

func toSet(xs []int) map[int]struct{} {
	m := make(map[int]struct{}, len(xs))
	for _, x := range xs {
		m[x] = struct{}{}
	}
	return m
}
