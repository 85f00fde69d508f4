package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gatherpass/internal/domain"
)

// operatorTokenExpiry bounds one admin-console session.
const operatorTokenExpiry = 12 * time.Hour

type authService struct {
	operatorRepo domain.OperatorRepository
	hasher       domain.PasswordHasher
	issuer       domain.TokenIssuer
}

// NewAuthService creates an AuthService for operator accounts.
func NewAuthService(operatorRepo domain.OperatorRepository, hasher domain.PasswordHasher, issuer domain.TokenIssuer) domain.AuthService {
	return &authService{
		operatorRepo: operatorRepo,
		hasher:       hasher,
		issuer:       issuer,
	}
}

func (s *authService) Signup(ctx context.Context, email, name, password string) (*domain.Operator, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if email == "" || name == "" {
		return nil, fmt.Errorf("%w: email and name are required", domain.ErrInvalidInput)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", domain.ErrInvalidInput)
	}

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	hash, err := s.hasher.Hash(salt, password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	operator := &domain.Operator{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Salt:         salt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.operatorRepo.Create(ctx, operator); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("create operator: %w", err)
	}
	return operator, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.Operator, error) {
	operator, err := s.operatorRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("get operator: %w", err)
	}
	if err := s.hasher.Compare(operator.PasswordHash, operator.Salt, password); err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(operator.ID, operator.Email, operatorTokenExpiry)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, operator, nil
}
