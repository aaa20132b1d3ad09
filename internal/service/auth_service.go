package service

import (
	"errors"

	"nhadat/config"
	"nhadat/internal/auth"
	"nhadat/internal/domain"
	"nhadat/internal/models"
	"nhadat/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailExists  = errors.New("email already registered")
	ErrInvalidCreds = errors.New("invalid email or password")
	ErrInvalidRole  = errors.New("role must be BUYER or SELLER")
)

type AuthService struct {
	cfg      *config.Config
	userRepo *repository.UserRepository
}

func NewAuthService(cfg *config.Config, userRepo *repository.UserRepository) *AuthService {
	return &AuthService{cfg: cfg, userRepo: userRepo}
}

func (s *AuthService) Register(email, password, fullName, phone, role string) (*models.User, string, string, error) {
	if role != domain.RoleBuyer && role != domain.RoleSeller {
		return nil, "", "", ErrInvalidRole
	}
	_, err := s.userRepo.GetByEmail(email)
	if err == nil {
		return nil, "", "", ErrEmailExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", "", err
	}
	u := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     fullName,
		Phone:        phone,
		Role:         role,
	}
	if err := s.userRepo.Create(u); err != nil {
		return nil, "", "", err
	}
	return s.issueTokens(u)
}

func (s *AuthService) Login(email, password string) (*models.User, string, string, error) {
	u, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", "", ErrInvalidCreds
		}
		return nil, "", "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", "", ErrInvalidCreds
	}
	return s.issueTokens(u)
}

// Refresh exchanges a valid refresh token for a new token pair.
func (s *AuthService) Refresh(refreshToken string) (*models.User, string, string, error) {
	userID, err := auth.ParseRefreshToken(&s.cfg.JWT, refreshToken)
	if err != nil {
		return nil, "", "", auth.ErrInvalidToken
	}
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, "", "", auth.ErrInvalidToken
	}
	return s.issueTokens(u)
}

func (s *AuthService) issueTokens(u *models.User) (*models.User, string, string, error) {
	access, err := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Email, u.Role)
	if err != nil {
		return u, "", "", err
	}
	refresh, err := auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
	if err != nil {
		return u, access, "", err
	}
	return u, access, refresh, nil
}
