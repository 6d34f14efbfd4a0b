package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"parkeo/internal/db"
	"parkeo/internal/entities"
	"parkeo/internal/errs"
)

type UserAccountStore interface {
	Create(u *db.User) error
	GetByEmail(email string) (*db.User, error)
}

type AuthService struct {
	users  UserAccountStore
	secret []byte
	now    func() time.Time
}

func NewAuthService(users UserAccountStore, secret string) *AuthService {
	return &AuthService{users: users, secret: []byte(secret), now: time.Now}
}

func (s *AuthService) Signup(req entities.SignupRequest) (*db.User, error) {
	if req.Email == "" || req.Password == "" {
		return nil, errs.InvalidArgument("email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &db.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Role:         db.RoleDriver,
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(email, password string) (string, error) {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", errs.Unauthorized("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", errs.Unauthorized("invalid credentials")
	}

	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"exp":     s.now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// EnsureAdmin creates the bootstrap operator account if it does not exist.
// Called from main with ADMIN_EMAIL/ADMIN_PASSWORD.
func (s *AuthService) EnsureAdmin(email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	existing, err := s.users.GetByEmail(email)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.Create(&db.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         db.RoleAdmin,
	})
}
