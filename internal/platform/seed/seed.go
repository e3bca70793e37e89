// Package seed provisions the roles and bootstrap accounts a fresh database
// needs. Running it again is harmless.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"quizmaster/internal/common"
	"quizmaster/internal/common/security"
	"quizmaster/internal/domain/model"
	"quizmaster/internal/domain/repository"
	"quizmaster/internal/platform/database"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

//go:embed default_seed.yaml
var defaultSeed []byte

type Role struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type User struct {
	Name     string   `yaml:"name"`
	Email    string   `yaml:"email"`
	Password string   `yaml:"password"`
	Roles    []string `yaml:"roles"`
}

type Data struct {
	Roles []Role `yaml:"roles"`
	Users []User `yaml:"users"`
}

// Load reads the seed file at path, or the built-in seed when path is empty.
func Load(path string) (*Data, error) {
	if path == "" {
		return Decode(bytes.NewReader(defaultSeed))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

func Decode(r io.Reader) (*Data, error) {
	data := &Data{}
	if err := yaml.NewDecoder(r).Decode(data); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	for _, u := range data.Users {
		if u.Email == "" || u.Password == "" {
			return nil, fmt.Errorf("seed user %q needs an email and a password", u.Name)
		}
	}
	return data, nil
}

// Apply creates missing roles and users. Existing users are left untouched
// apart from gaining any role they lack.
func Apply(ctx context.Context, db *database.DB, users repository.UserRepository, data *Data) error {
	type pending struct {
		user  *model.User
		roles []string
		isNew bool
	}
	var todo []pending

	// Lookups happen before the transaction: SQLite has a single connection.
	for _, su := range data.Users {
		email := strings.ToLower(strings.TrimSpace(su.Email))
		existing, err := users.FindByEmail(ctx, email)
		switch {
		case err == nil:
			todo = append(todo, pending{user: existing, roles: su.Roles})
		case errors.Is(err, common.ErrNotFound):
			hash, err := security.HashPassword(su.Password)
			if err != nil {
				return fmt.Errorf("hash password for %s: %w", email, err)
			}
			todo = append(todo, pending{
				user: &model.User{
					Name:           su.Name,
					Email:          email,
					HashedPassword: hash,
					FsUniquifier:   uuid.NewString(),
					Active:         true,
				},
				roles: su.Roles,
				isNew: true,
			})
		default:
			return fmt.Errorf("look up seed user %s: %w", email, err)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, role := range data.Roles {
		if _, err := users.FindOrCreateRole(ctx, tx, role.Name, role.Description); err != nil {
			return err
		}
	}
	created := 0
	for _, p := range todo {
		if p.isNew {
			if err := users.Create(ctx, tx, p.user); err != nil {
				return fmt.Errorf("create seed user %s: %w", p.user.Email, err)
			}
			created++
		}
		for _, role := range p.roles {
			if _, err := users.FindOrCreateRole(ctx, tx, role, ""); err != nil {
				return err
			}
			if err := users.AddRole(ctx, tx, p.user.ID, role); err != nil {
				return fmt.Errorf("grant %s to %s: %w", role, p.user.Email, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed: %w", err)
	}
	log.Printf("Seed applied: %d roles, %d new users", len(data.Roles), created)
	return nil
}
