package model

import "time"

type Attempt struct {
	ID            int64      `json:"id"`
	StudentID     int64      `json:"student_id"`
	QuizID        int64      `json:"quiz_id"`
	AttemptNumber int        `json:"attempt_number"`
	AttemptDate   time.Time  `json:"attempt_date"`
	Score         int        `json:"score"`
	Responses     []Response `json:"responses,omitempty"`
}

type Response struct {
	ID         int64  `json:"id"`
	AttemptID  int64  `json:"attempt_id"`
	QuestionID int64  `json:"question_id"`
	Answer     Answer `json:"answer"`
	IsCorrect  bool   `json:"is_correct"`
}
