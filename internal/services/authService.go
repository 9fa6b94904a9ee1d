package services

import (
	"context"
	"errors"
	"time"

	"github.com/Ryuu-x/File-Sharing-App/internal/db"
	"github.com/Ryuu-x/File-Sharing-App/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailInUse         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserStore is the persistence surface the auth service needs.
type UserStore interface {
	Insert(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// AuthService registers users and issues bearer tokens. Identity is
// optional elsewhere in the system; it only feeds rate-limit keying.
type AuthService struct {
	users     UserStore
	jwtSecret []byte
}

func NewAuthService(users UserStore, jwtSecret string) *AuthService {
	return &AuthService{users: users, jwtSecret: []byte(jwtSecret)}
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

// VerifyPassword compares a plain password with a hashed password
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Register creates a new user account.
func (s *AuthService) Register(ctx context.Context, email, password string) (models.User, error) {
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return models.User{}, ErrEmailInUse
	} else if !errors.Is(err, db.ErrUserNotFound) {
		return models.User{}, err
	}

	hashedPassword, err := HashPassword(password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		Email:     email,
		Password:  hashedPassword,
		CreatedAt: time.Now(),
	}
	if err := s.users.Insert(ctx, &user); err != nil {
		return models.User{}, err
	}
	user.Password = ""
	return user, nil
}

// Login authenticates a user and returns a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if !VerifyPassword(password, user.Password) {
		return "", ErrInvalidCredentials
	}

	return s.generateJWT(user.ID.Hex())
}

// generateJWT signs a token carrying the user id, valid for 4 hours.
func (s *AuthService) generateJWT(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(4 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
