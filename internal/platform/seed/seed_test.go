package seed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"quizmaster/internal/common/security"
	"quizmaster/internal/domain/model"
	"quizmaster/internal/domain/repository"
	"quizmaster/internal/platform/config"
	"quizmaster/internal/platform/database"
)

func TestLoadDefaultSeed(t *testing.T) {
	data, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(data.Roles) != 2 || len(data.Users) != 2 {
		t.Fatalf("default seed = %+v", data)
	}
	if data.Users[0].Email != "admin@quizmaster.com" {
		t.Fatalf("first seeded user = %q", data.Users[0].Email)
	}
}

func TestDecodeRequiresCredentials(t *testing.T) {
	_, err := Decode(strings.NewReader("users:\n  - name: Ghost\n    email: ghost@x.com\n"))
	if err == nil {
		t.Fatalf("expected error for user without password")
	}
	data, err := Decode(strings.NewReader(""))
	if err != nil || len(data.Users) != 0 {
		t.Fatalf("empty seed = %+v, %v", data, err)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, config.DriverSQLite, config.SQLiteDSN(filepath.Join(t.TempDir(), "seed.db")))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(db.Close)
	users := repository.NewUserRepository(db)

	data, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := Apply(ctx, db, users, data); err != nil {
			t.Fatalf("Apply #%d: %v", i+1, err)
		}
	}

	all, err := users.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("seeded %d users, want 2", len(all))
	}
	admin, err := users.FindByEmail(ctx, "admin@quizmaster.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if !admin.HasAnyRole(model.RoleAdmin) || !security.CheckPasswordHash("admin", admin.HashedPassword) {
		t.Fatalf("admin not seeded correctly: %+v", admin)
	}
}

func TestApplyCustomSeedGrantsMissingRoles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	db, err := database.Open(ctx, config.DriverSQLite, config.SQLiteDSN(filepath.Join(dir, "seed.db")))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(db.Close)
	users := repository.NewUserRepository(db)

	if err := Apply(ctx, db, users, &Data{Users: []User{{Name: "T", Email: "Mentor@X.com", Password: "pw", Roles: []string{model.RoleUser}}}}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	path := filepath.Join(dir, "seed.yaml")
	yaml := "roles:\n  - name: admin\n    description: Administrator\nusers:\n  - name: T\n    email: mentor@x.com\n    password: other\n    roles: [user, admin]\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	data, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%s): %v", path, err)
	}
	if err := Apply(ctx, db, users, data); err != nil {
		t.Fatalf("Apply custom: %v", err)
	}

	u, err := users.FindByEmail(ctx, "mentor@x.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if !u.HasAnyRole(model.RoleAdmin) || !u.HasAnyRole(model.RoleUser) {
		t.Fatalf("roles = %v, want user and admin", u.Roles)
	}
	// Existing accounts keep their password.
	if !security.CheckPasswordHash("pw", u.HashedPassword) {
		t.Fatalf("seed overwrote an existing password")
	}
}
