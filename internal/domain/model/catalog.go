package model

type Subject struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"-"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	Chapters    []Chapter `json:"chapters"`
}

type Chapter struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"-"`
	Description string `json:"description"`
	Quizzes     []Quiz `json:"quizzes"`
}

type Quiz struct {
	ID          int64      `json:"id"`
	ChapterID   int64      `json:"chapter_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	TotalMarks  int        `json:"total_marks"`
	TimeLimit   *int       `json:"time_limit"` // minutes, nil when untimed
	Questions   []Question `json:"questions"`
}
