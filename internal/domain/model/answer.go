package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

type AnswerKind string

const (
	AnswerNone     AnswerKind = "none"
	AnswerSingle   AnswerKind = "single"
	AnswerMultiple AnswerKind = "multiple"
	AnswerNumeric  AnswerKind = "numeric"
)

// Answer is what a student submitted for one question. Exactly one of Index,
// Indices or Value is meaningful, selected by Kind.
type Answer struct {
	Kind    AnswerKind
	Index   int
	Indices []int
	Value   float64
}

func NoAnswer() Answer { return Answer{Kind: AnswerNone} }

func SingleChoice(index int) Answer { return Answer{Kind: AnswerSingle, Index: index} }

// MultipleChoice normalises indices to a sorted set.
func MultipleChoice(indices ...int) Answer {
	if len(indices) == 0 {
		return NoAnswer()
	}
	seen := make(map[int]struct{}, len(indices))
	out := make([]int, 0, len(indices))
	for _, i := range indices {
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		out = append(out, i)
	}
	sort.Ints(out)
	return Answer{Kind: AnswerMultiple, Indices: out}
}

func Numeric(v float64) Answer { return Answer{Kind: AnswerNumeric, Value: v} }

func (a Answer) IsEmpty() bool { return a.Kind == AnswerNone || a.Kind == "" }

// MarshalJSON keeps the wire shape clients already send: null, a list of
// option indices, or a bare number.
func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AnswerSingle:
		return json.Marshal([]int{a.Index})
	case AnswerMultiple:
		return json.Marshal(a.Indices)
	case AnswerNumeric:
		return json.Marshal(a.Value)
	default:
		return []byte("null"), nil
	}
}

// ValidateFor checks option indices against the question's options.
func (a Answer) ValidateFor(q *Question) error {
	check := func(i int) error {
		if i < 0 || i >= len(q.Options) {
			return fmt.Errorf("option index %d out of range", i)
		}
		return nil
	}
	switch a.Kind {
	case AnswerSingle:
		return check(a.Index)
	case AnswerMultiple:
		for _, i := range a.Indices {
			if err := check(i); err != nil {
				return err
			}
		}
	}
	return nil
}

// ParseAnswer decodes a free-form JSON answer according to the question type.
// null, an empty list and an empty string all mean "no answer".
func ParseAnswer(raw json.RawMessage, t AnswerType) (Answer, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return NoAnswer(), nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return Answer{}, fmt.Errorf("malformed answer: %w", err)
	}

	switch t {
	case AnswerTypeSingle:
		idx, err := toIndices(v)
		if err != nil {
			return Answer{}, err
		}
		switch len(idx) {
		case 0:
			return NoAnswer(), nil
		case 1:
			return SingleChoice(idx[0]), nil
		default:
			return Answer{}, errors.New("single choice question accepts one option")
		}
	case AnswerTypeMultiple:
		idx, err := toIndices(v)
		if err != nil {
			return Answer{}, err
		}
		return MultipleChoice(idx...), nil
	case AnswerTypeNumeric:
		return toNumeric(v)
	default:
		return Answer{}, fmt.Errorf("unknown answer type %q", t)
	}
}

func toIndices(v interface{}) ([]int, error) {
	switch t := v.(type) {
	case json.Number:
		i, err := numberToIndex(t)
		if err != nil {
			return nil, err
		}
		return []int{i}, nil
	case []interface{}:
		out := make([]int, 0, len(t))
		for _, e := range t {
			n, ok := e.(json.Number)
			if !ok {
				return nil, errors.New("option indices must be integers")
			}
			i, err := numberToIndex(n)
			if err != nil {
				return nil, err
			}
			out = append(out, i)
		}
		return out, nil
	case string:
		if strings.TrimSpace(t) == "" {
			return nil, nil
		}
		return nil, errors.New("option indices must be integers")
	default:
		return nil, errors.New("choice answer must be an option index or a list of indices")
	}
}

func numberToIndex(n json.Number) (int, error) {
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("option index %s is not an integer", n.String())
	}
	if f < math.MinInt32 || f > math.MaxInt32 {
		return 0, fmt.Errorf("option index %s out of range", n.String())
	}
	return int(f), nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func toNumeric(v interface{}) (Answer, error) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil || !finite(f) {
			return Answer{}, fmt.Errorf("invalid number %s", t.String())
		}
		return Numeric(f), nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return NoAnswer(), nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || !finite(f) {
			return Answer{}, fmt.Errorf("invalid number %q", t)
		}
		return Numeric(f), nil
	case []interface{}:
		switch len(t) {
		case 0:
			return NoAnswer(), nil
		case 1:
			return toNumeric(t[0])
		}
		return Answer{}, errors.New("numeric question accepts a single value")
	default:
		return Answer{}, errors.New("numeric answer must be a number")
	}
}
