package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"storefront/internal/models"
	"storefront/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

// bcryptCost is lowered in tests.
var bcryptCost = bcrypt.DefaultCost

// AuthService handles user auth logic
type AuthService struct {
	authRepo   repository.Authorization
	tx         repository.Transactor
	activity   recorder
	signingKey []byte
	tokenTTL   time.Duration
}

// recorder is the slice of Activity the other services write through.
type recorder interface {
	Record(ctx context.Context, e models.ActivityEvent) error
}

func NewAuthService(repo repository.Authorization, tx repository.Transactor, activity recorder, signingKey string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		authRepo:   repo,
		tx:         tx,
		activity:   activity,
		signingKey: []byte(signingKey),
		tokenTTL:   tokenTTL,
	}
}

// SignUp hashes the password and creates a new user.
// An existing username yields ErrUsernameTaken and no row is written.
func (s *AuthService) SignUp(ctx context.Context, username, password string) (int, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return 0, ErrInvalidCredentials
	}
	hash, err := hashPassword(password)
	if err != nil {
		return 0, fmt.Errorf("invalid password: %w", err)
	}

	var id int
	err = s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		existing, err := s.authRepo.GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrUsernameTaken
		}
		id, err = s.authRepo.Create(ctx, username, hash)
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrUsernameTaken
		}
		if err != nil {
			return err
		}
		return s.activity.Record(ctx, models.ActivityEvent{
			Type:        models.EventSignup,
			UserID:      id,
			Description: fmt.Sprintf("user %q signed up", username),
		})
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Authenticate checks the username/password pair. Any mismatch yields the
// generic ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var user *models.User
	err := s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		u, err := s.authRepo.GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		if u == nil {
			// keep the unknown-user path as slow as a wrong password
			_ = verifyPassword(dummyHash(), password)
			return ErrInvalidCredentials
		}
		if err := verifyPassword(u.PasswordHash, password); err != nil {
			return ErrInvalidCredentials
		}
		user = u
		return s.activity.Record(ctx, models.ActivityEvent{
			Type:        models.EventLogin,
			UserID:      u.ID,
			Description: fmt.Sprintf("user %q logged in", u.Username),
		})
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword overwrites the stored hash after checking the confirmation,
// the minimum length and the current password, in that order.
func (s *AuthService) ChangePassword(ctx context.Context, userID int, current, newPassword, confirm string) error {
	if newPassword != confirm {
		return ErrPasswordMismatch
	}
	if len(newPassword) < minPasswordLen {
		return ErrPasswordTooShort
	}

	return s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		u, err := s.authRepo.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if u == nil {
			return ErrUserNotFound
		}
		if err := verifyPassword(u.PasswordHash, current); err != nil {
			return ErrInvalidPassword
		}
		hash, err := hashPassword(newPassword)
		if err != nil {
			return err
		}
		if err := s.authRepo.UpdatePassword(ctx, userID, hash); err != nil {
			return err
		}
		return s.activity.Record(ctx, models.ActivityEvent{
			Type:        models.EventPasswordChange,
			UserID:      userID,
			Description: fmt.Sprintf("user %q changed password", u.Username),
		})
	})
}

// Claims defines JWT claims
type Claims struct {
	jwt.RegisteredClaims
	UserID int `json:"user_id"`
}

// GenerateToken validates credentials and returns JWT
func (s *AuthService) GenerateToken(ctx context.Context, username, password string) (string, error) {
	u, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}
	return s.issueToken(u.ID)
}

// ParseToken parses JWT and returns userID
func (s *AuthService) ParseToken(accessToken string) (int, error) {
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Ensure HMAC signing is used
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID <= 0 {
		return 0, ErrInvalidToken
	}

	return claims.UserID, nil
}

// helper: issue a signed JWT for a user
func (s *AuthService) issueToken(userID int) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: userID,
	})
	return token.SignedString(s.signingKey)
}

// helper: hash password safely
func hashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// helper: verify password against hash
func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

var (
	dummyHashOnce sync.Once
	dummyHashVal  string
)

func dummyHash() string {
	dummyHashOnce.Do(func() {
		h, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcryptCost)
		dummyHashVal = string(h)
	})
	return dummyHashVal
}
