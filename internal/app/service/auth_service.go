package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"

	"quizmaster/internal/common"
	"quizmaster/internal/common/security"
	"quizmaster/internal/domain/model"
	"quizmaster/internal/domain/repository"
	"quizmaster/internal/platform/database"
	"quizmaster/internal/platform/throttle"

	"github.com/google/uuid"
)

type AuthService struct {
	userRepo repository.UserRepository
	limiter  throttle.LoginLimiter
	db       *database.DB
}

func NewAuthService(userRepo repository.UserRepository, limiter throttle.LoginLimiter, db *database.DB) *AuthService {
	if limiter == nil {
		limiter = throttle.NoopLimiter()
	}
	return &AuthService{userRepo: userRepo, limiter: limiter, db: db}
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
	Role  string `json:"role"`
	ID    int64  `json:"id"`
}

// CredentialsRequest confirms ownership of an account before destructive
// operations.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an active account holding the user role.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return nil, common.NewError(common.ErrBadRequest, "Invalid inputs")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, common.NewError(common.ErrBadRequest, "Invalid Email")
	}

	if _, err := s.userRepo.FindByEmail(ctx, req.Email); err == nil {
		return nil, common.NewError(common.ErrBadRequest, "Email already exists")
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &model.User{
		Name:           req.Name,
		Email:          req.Email,
		HashedPassword: hashedPassword,
		FsUniquifier:   uuid.NewString(),
		Active:         true,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.userRepo.Create(ctx, tx, user); err != nil {
		if errors.Is(err, common.ErrConflict) {
			// Lost a race with a concurrent registration.
			return nil, common.NewError(common.ErrBadRequest, "Email already exists")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if err := s.userRepo.AddRole(ctx, tx, user.ID, model.RoleUser); err != nil {
		return nil, fmt.Errorf("failed to assign role: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	user.Roles = []string{model.RoleUser}
	log.Printf("User %d registered (%s)", user.ID, user.Email)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		return nil, common.NewError(common.ErrBadRequest, "Invalid inputs")
	}

	blocked, err := s.limiter.Blocked(ctx, req.Email)
	if err != nil {
		// Throttling is best effort; an unreachable store must not lock everyone out.
		log.Printf("WARN: login throttle unavailable: %v", err)
	}
	if blocked {
		return nil, common.NewError(common.ErrTooManyRequests, "Too many failed login attempts, try again later")
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewError(common.ErrBadRequest, "Invalid Email")
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		if err := s.limiter.Fail(ctx, req.Email); err != nil {
			log.Printf("WARN: could not record failed login: %v", err)
		}
		return nil, common.NewError(common.ErrBadRequest, "Invalid Password")
	}
	if !user.Active {
		return nil, common.NewError(common.ErrForbidden, "Account is inactive")
	}
	if err := s.limiter.Reset(ctx, req.Email); err != nil {
		log.Printf("WARN: could not reset login failures: %v", err)
	}

	token, err := security.GenerateToken(user.ID, user.FsUniquifier)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &LoginResponse{Token: token, Email: user.Email, Role: user.PrimaryRole(), ID: user.ID}, nil
}

// Authenticate resolves the user behind a verified token. Tokens issued before
// the account was deleted or recreated carry a stale uniquifier.
func (s *AuthService) Authenticate(ctx context.Context, userID int64, uniquifier string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewError(common.ErrUnauthorized, "User no longer exists")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.FsUniquifier != uniquifier {
		return nil, common.NewError(common.ErrUnauthorized, "Token has been revoked")
	}
	if !user.Active {
		return nil, common.NewError(common.ErrUnauthorized, "Account is inactive")
	}
	return user, nil
}

// DeleteAccount removes the caller's own account after re-checking the
// password. Attempts and responses go with it.
func (s *AuthService) DeleteAccount(ctx context.Context, caller *model.User, req CredentialsRequest) error {
	req.Email = normalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		return common.NewError(common.ErrBadRequest, "Invalid inputs")
	}
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.NewError(common.ErrNotFound, "User not found")
		}
		return fmt.Errorf("failed to find user: %w", err)
	}
	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return common.NewError(common.ErrBadRequest, "Invalid Password")
	}
	if caller == nil || caller.ID != user.ID {
		return common.NewError(common.ErrForbidden, "You can only delete your own account")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.userRepo.Delete(ctx, tx, user.ID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	log.Printf("User %d deleted their account", user.ID)
	return nil
}

// ToggleActivation flips the active flag of a user and returns the new state.
func (s *AuthService) ToggleActivation(ctx context.Context, userID int64) (*model.User, error) {
	if userID <= 0 {
		return nil, common.NewError(common.ErrBadRequest, "Invalid inputs")
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewError(common.ErrNotFound, "User not found")
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.userRepo.SetActive(ctx, tx, user.ID, !user.Active); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	user.Active = !user.Active
	return user, nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	if len(users) == 0 {
		return nil, common.NewError(common.ErrNotFound, "No users found")
	}
	return users, nil
}
