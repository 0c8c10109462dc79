package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"userapi/internal/cache"
	"userapi/internal/model"
	"userapi/internal/repository"
)

const (
	bcryptCost   = 10
	userCacheTTL = 5 * time.Minute
)

// UserService exposes the CRUD operations on users. Payloads are decoded
// request bodies; validation failures come back as *errors.ValidationError.
type UserService interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUser(ctx context.Context, id uint) (*model.User, error)
	CreateUser(ctx context.Context, payload map[string]interface{}) (*model.User, error)
	UpdateUser(ctx context.Context, id uint, payload map[string]interface{}) (*model.User, error)
	DeleteUser(ctx context.Context, id uint) (*model.User, error)
}

type userService struct {
	repo      repository.UserRepository
	validator *UserValidator
	cache     *cache.Client
}

// NewUserService builds a UserService with repository and cache.
func NewUserService(repo repository.UserRepository, cache *cache.Client) UserService {
	return &userService{
		repo:      repo,
		validator: NewUserValidator(repo),
		cache:     cache,
	}
}

func (s *userService) cacheKey(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.repo.List(ctx)
}

func (s *userService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	var cached model.User
	if s.cache.GetJSON(ctx, s.cacheKey(id), &cached) {
		return &cached, nil
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	_ = s.cache.SetJSON(ctx, s.cacheKey(id), user, userCacheTTL)
	return user, nil
}

func (s *userService) CreateUser(ctx context.Context, payload map[string]interface{}) (*model.User, error) {
	input, err := s.validator.Validate(ctx, payload, 0)
	if err != nil {
		return nil, err
	}

	user, err := newUserFromInput(input)
	if err != nil {
		return nil, err
	}

	err = s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.UserRepository) error {
		return tx.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	_ = s.cache.Delete(ctx, s.cacheKey(user.ID))
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, id uint, payload map[string]interface{}) (*model.User, error) {
	input, err := s.validator.Validate(ctx, payload, id)
	if err != nil {
		return nil, err
	}

	fields, err := newUserFromInput(input)
	if err != nil {
		return nil, err
	}

	var updated *model.User
	err = s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.UserRepository) error {
		var err error
		updated, err = tx.Update(ctx, id, fields)
		return err
	})
	if err != nil {
		return nil, err
	}

	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return updated, nil
}

func (s *userService) DeleteUser(ctx context.Context, id uint) (*model.User, error) {
	var deleted *model.User
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.UserRepository) error {
		var err error
		deleted, err = tx.Delete(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return deleted, nil
}

// newUserFromInput builds the persisted form of validated input, hashing the password.
func newUserFromInput(input *UserInput) (*model.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return &model.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hashed),
		Age:          input.AgeDecimal(),
		Gender:       input.Gender,
		Address:      input.Address,
	}, nil
}
