package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/you/clinic-booking/pkg/apperr"
	"github.com/you/clinic-booking/pkg/auth"
	"github.com/you/clinic-booking/services/user-service/internal/domain"
	"github.com/you/clinic-booking/services/user-service/internal/repository"
)

type UserSvc struct {
	repo      *repository.UserRepo
	jwtSecret string
	jwtTTL    time.Duration
}

func NewUserSvc(repo *repository.UserRepo, jwtSecret string, jwtTTL time.Duration) *UserSvc {
	return &UserSvc{repo: repo, jwtSecret: jwtSecret, jwtTTL: jwtTTL}
}

type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (s *UserSvc) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, apperr.Validation("a valid email is required")
	}
	if len(in.Password) < 8 {
		return nil, apperr.Validation("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Email:        in.Email,
		PasswordHash: string(hash),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("Registration unsuccessful", "Email is already registered")
		}
		return nil, err
	}
	return u, nil
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Login answers the same way for a missing account and a wrong password.
func (s *UserSvc) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	invalid := &apperr.Error{Status: http.StatusUnauthorized, Message: "Invalid credentials"}

	u, err := s.repo.ByEmail(ctx, strings.TrimSpace(strings.ToLower(in.Email)))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		return nil, invalid
	}

	token, err := auth.Sign(s.jwtSecret, u.ID, u.Role, u.Email, s.jwtTTL)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: u}, nil
}

func (s *UserSvc) All(ctx context.Context) ([]domain.User, error) {
	return s.repo.All(ctx)
}

func (s *UserSvc) ByID(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.repo.ByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("/users/" + id)
	}
	return u, err
}

type UpdateInput struct {
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// Update patches only the fields present in the payload.
func (s *UserSvc) Update(ctx context.Context, id string, in UpdateInput) (*domain.User, error) {
	u, err := s.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*in.Email))
		if email == "" || !strings.Contains(email, "@") {
			return nil, apperr.Validation("a valid email is required")
		}
		u.Email = email
	}
	if in.Password != nil {
		if len(*in.Password) < 8 {
			return nil, apperr.Validation("password must be at least 8 characters")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = string(hash)
	}
	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		u.LastName = *in.LastName
	}
	if err := s.repo.Save(ctx, u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("Update unsuccessful", "Email is already registered")
		}
		return nil, err
	}
	return u, nil
}

func (s *UserSvc) Delete(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("/users/" + id)
	}
	return err
}
