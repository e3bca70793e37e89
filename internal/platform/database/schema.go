package database

import (
	"context"
	"fmt"

	"quizmaster/internal/platform/config"
)

// Migrate creates every table and index that does not exist yet.
func (db *DB) Migrate(ctx context.Context) error {
	stmts := schemaSQLite
	if db.Driver == config.DriverPostgres {
		stmts = schemaPostgres
	}
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	return nil
}

var schemaSQLite = []string{
	`CREATE TABLE IF NOT EXISTS roles (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  description TEXT NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS users (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  password TEXT NOT NULL,
  fs_uniquifier TEXT NOT NULL UNIQUE,
  active BOOLEAN NOT NULL DEFAULT 1
)`,
	`CREATE TABLE IF NOT EXISTS user_roles (
  user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  role_id INTEGER NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
  PRIMARY KEY (user_id, role_id)
)`,
	`CREATE TABLE IF NOT EXISTS subjects (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  slug TEXT NOT NULL UNIQUE,
  description TEXT NOT NULL DEFAULT '',
  image_url TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS chapters (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  slug TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS subject_chapters (
  subject_id INTEGER NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
  chapter_id INTEGER NOT NULL REFERENCES chapters(id) ON DELETE CASCADE,
  PRIMARY KEY (subject_id, chapter_id)
)`,
	`CREATE TABLE IF NOT EXISTS quizzes (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  chapter_id INTEGER NOT NULL REFERENCES chapters(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  total_marks INTEGER NOT NULL,
  time_limit INTEGER
)`,
	`CREATE TABLE IF NOT EXISTS questions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  quiz_id INTEGER NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
  question_statement TEXT NOT NULL,
  ans_type TEXT NOT NULL CHECK (ans_type IN ('single','multiple','numeric')),
  options TEXT NOT NULL DEFAULT '[]',
  correct_options TEXT NOT NULL DEFAULT '[]',
  correct_min REAL,
  correct_max REAL,
  marks INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS attempts (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  student_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  quiz_id INTEGER NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
  attempt_number INTEGER NOT NULL,
  attempt_date INTEGER NOT NULL,
  score INTEGER NOT NULL DEFAULT 0,
  UNIQUE (student_id, quiz_id, attempt_number)
)`,
	`CREATE TABLE IF NOT EXISTS responses (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  attempt_id INTEGER NOT NULL REFERENCES attempts(id) ON DELETE CASCADE,
  question_id INTEGER NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
  answer TEXT NOT NULL DEFAULT 'null',
  is_correct BOOLEAN NOT NULL DEFAULT 0
)`,
	`CREATE INDEX IF NOT EXISTS idx_quizzes_chapter ON quizzes(chapter_id)`,
	`CREATE INDEX IF NOT EXISTS idx_questions_quiz ON questions(quiz_id)`,
	`CREATE INDEX IF NOT EXISTS idx_responses_attempt ON responses(attempt_id)`,
}

var schemaPostgres = []string{
	`CREATE TABLE IF NOT EXISTS roles (
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  description TEXT NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS users (
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  password TEXT NOT NULL,
  fs_uniquifier TEXT NOT NULL UNIQUE,
  active BOOLEAN NOT NULL DEFAULT TRUE
)`,
	`CREATE TABLE IF NOT EXISTS user_roles (
  user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  role_id BIGINT NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
  PRIMARY KEY (user_id, role_id)
)`,
	`CREATE TABLE IF NOT EXISTS subjects (
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  slug TEXT NOT NULL UNIQUE,
  description TEXT NOT NULL DEFAULT '',
  image_url TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS chapters (
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS subject_chapters (
  subject_id BIGINT NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
  chapter_id BIGINT NOT NULL REFERENCES chapters(id) ON DELETE CASCADE,
  PRIMARY KEY (subject_id, chapter_id)
)`,
	`CREATE TABLE IF NOT EXISTS quizzes (
  id BIGSERIAL PRIMARY KEY,
  chapter_id BIGINT NOT NULL REFERENCES chapters(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  total_marks INTEGER NOT NULL,
  time_limit INTEGER
)`,
	`CREATE TABLE IF NOT EXISTS questions (
  id BIGSERIAL PRIMARY KEY,
  quiz_id BIGINT NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
  question_statement TEXT NOT NULL,
  ans_type TEXT NOT NULL CHECK (ans_type IN ('single','multiple','numeric')),
  options TEXT NOT NULL DEFAULT '[]',
  correct_options TEXT NOT NULL DEFAULT '[]',
  correct_min DOUBLE PRECISION,
  correct_max DOUBLE PRECISION,
  marks INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS attempts (
  id BIGSERIAL PRIMARY KEY,
  student_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  quiz_id BIGINT NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
  attempt_number INTEGER NOT NULL,
  attempt_date BIGINT NOT NULL,
  score INTEGER NOT NULL DEFAULT 0,
  UNIQUE (student_id, quiz_id, attempt_number)
)`,
	`CREATE TABLE IF NOT EXISTS responses (
  id BIGSERIAL PRIMARY KEY,
  attempt_id BIGINT NOT NULL REFERENCES attempts(id) ON DELETE CASCADE,
  question_id BIGINT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
  answer TEXT NOT NULL DEFAULT 'null',
  is_correct BOOLEAN NOT NULL DEFAULT FALSE
)`,
	`CREATE INDEX IF NOT EXISTS idx_quizzes_chapter ON quizzes(chapter_id)`,
	`CREATE INDEX IF NOT EXISTS idx_questions_quiz ON questions(quiz_id)`,
	`CREATE INDEX IF NOT EXISTS idx_responses_attempt ON responses(attempt_id)`,
}
