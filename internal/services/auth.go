package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/thereayou/flux/internal/apperr"
	"github.com/thereayou/flux/internal/database"
	"github.com/thereayou/flux/internal/models"
	"github.com/thereayou/flux/pkg/auth"
)

// TokenRevoker отзыв токенов при выходе
type TokenRevoker interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
}

type RegisterInput struct {
	Username        string
	Email           string
	Phone           string
	FirstName       string
	LastName        string
	Career          string
	Password        string
	ConfirmPassword string
}

// Session выданный токен и его владелец
type Session struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

type AuthService struct {
	db            *database.Database
	jwt           *auth.JWTManager
	revoker       TokenRevoker
	allowedDomain string
	log           *slog.Logger
}

func NewAuthService(db *database.Database, jwt *auth.JWTManager, revoker TokenRevoker, allowedDomain string, log *slog.Logger) *AuthService {
	if log == nil {
		log = slog.Default()
	}
	return &AuthService{
		db:            db,
		jwt:           jwt,
		revoker:       revoker,
		allowedDomain: strings.ToLower(strings.TrimSpace(allowedDomain)),
		log:           log,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) validate(in *RegisterInput) error {
	in.Username = strings.TrimSpace(in.Username)
	in.Phone = strings.TrimSpace(in.Phone)
	in.FirstName = strings.Join(strings.Fields(in.FirstName), " ")
	in.LastName = strings.Join(strings.Fields(in.LastName), " ")
	in.Career = strings.TrimSpace(in.Career)
	in.Email = normalizeEmail(in.Email)

	switch {
	case in.Username == "":
		return apperr.Validation("username is required")
	case in.Phone == "":
		return apperr.Validation("phone is required")
	case in.FirstName == "" || in.LastName == "":
		return apperr.Validation("first and last name are required")
	case !strings.Contains(in.Email, "@"):
		return apperr.Validation("email is invalid")
	case s.allowedDomain != "" && !strings.HasSuffix(in.Email, s.allowedDomain):
		return apperr.Validation("email must end with " + s.allowedDomain)
	}
	if err := strongPassword(in.Password); err != nil {
		return err
	}
	if in.Password != in.ConfirmPassword {
		return apperr.Validation("passwords do not match")
	}
	return nil
}

// Register создаёт пользователя и сразу выдаёт токен
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	if err := s.validate(&in); err != nil {
		return nil, err
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		DisplayName:  in.FirstName + " " + in.LastName,
		Career:       in.Career,
		LastSeenAt:   time.Now(),
	}
	if err := s.db.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, apperr.Conflict("username or email is already registered").Wrap(err)
		}
		return nil, err
	}

	s.log.Info("user registered", "user_id", user.ID)
	return s.issue(user)
}

// Login проверяет пароль, обновляет last_seen и выдаёт JWT
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	invalid := apperr.New(apperr.KindUnauthenticated, "invalid credentials")

	user, err := s.db.FindUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, err
	}
	ok, err := checkPassword(user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, invalid
	}

	if err := s.db.UpdateLastSeen(ctx, user.ID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, invalid
		}
		return nil, err
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*Session, error) {
	token, expires, err := s.jwt.Generate(user.ID, user.Email)
	if err != nil {
		return nil, apperr.New(apperr.KindInternal, "could not generate token").Wrap(err)
	}
	return &Session{User: user, Token: token, ExpiresAt: expires}, nil
}

// Logout отзывает токен до его истечения
func (s *AuthService) Logout(ctx context.Context, token string) error {
	exp, err := s.jwt.Expiry(token)
	if err != nil {
		return apperr.New(apperr.KindUnauthenticated, "invalid token")
	}
	if err := s.revoker.Revoke(ctx, token, time.Until(exp)); err != nil {
		return apperr.Backend(err)
	}
	return nil
}
