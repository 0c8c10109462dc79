package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	apperrors "userapi/internal/errors"
	"userapi/internal/model"
	"userapi/internal/observability"
)

// editableColumns are overwritten in full on every update.
var editableColumns = []string{"name", "email", "password", "age", "gender", "address", "updated_at"}

// UserRepository defines persistence operations.
type UserRepository interface {
	List(ctx context.Context) ([]model.User, error)
	FindByID(ctx context.Context, id uint) (*model.User, error)
	EmailTaken(ctx context.Context, email string, exceptID uint) (bool, error)
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, id uint, fields *model.User) (*model.User, error)
	Delete(ctx context.Context, id uint) (*model.User, error)
	// WithTransaction runs fn with a repository bound to a single transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo UserRepository) error) error
}

// DBObserver times a logical database operation.
type DBObserver interface {
	ObserveDB(op string, fn func() error) error
}

type noopObserver struct{}

func (noopObserver) ObserveDB(_ string, fn func() error) error { return fn() }

type userRepository struct {
	db  *gorm.DB
	obs DBObserver
}

// NewUserRepository builds a GORM-backed repository. obs may be nil.
func NewUserRepository(db *gorm.DB, obs DBObserver) UserRepository {
	if obs == nil {
		obs = noopObserver{}
	}
	return &userRepository{db: db, obs: obs}
}

func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	users := make([]model.User, 0)
	err := r.obs.ObserveDB(observability.OpListUsers, func() error {
		return r.db.WithContext(ctx).Order("id DESC").Find(&users).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := r.obs.ObserveDB(observability.OpFindUser, func() error {
		return r.db.WithContext(ctx).First(&user, id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user %d: %w", id, err)
	}
	return &user, nil
}

func (r *userRepository) EmailTaken(ctx context.Context, email string, exceptID uint) (bool, error) {
	var count int64
	err := r.obs.ObserveDB(observability.OpEmailTaken, func() error {
		q := r.db.WithContext(ctx).Model(&model.User{}).Where("email = ?", email)
		if exceptID != 0 {
			q = q.Where("id <> ?", exceptID)
		}
		return q.Count(&count).Error
	})
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return count > 0, nil
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	err := r.obs.ObserveDB(observability.OpCreateUser, func() error {
		return r.db.WithContext(ctx).Create(user).Error
	})
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, id uint, fields *model.User) (*model.User, error) {
	user, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Name = fields.Name
	user.Email = fields.Email
	user.PasswordHash = fields.PasswordHash
	user.Age = fields.Age
	user.Gender = fields.Gender
	user.Address = fields.Address

	err = r.obs.ObserveDB(observability.OpUpdateUser, func() error {
		return r.db.WithContext(ctx).Model(user).Select(editableColumns).Updates(user).Error
	})
	if err != nil {
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}
	return user, nil
}

func (r *userRepository) Delete(ctx context.Context, id uint) (*model.User, error) {
	user, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	err = r.obs.ObserveDB(observability.OpDeleteUser, func() error {
		return r.db.WithContext(ctx).Delete(user).Error
	})
	if err != nil {
		return nil, fmt.Errorf("delete user %d: %w", id, err)
	}
	return user, nil
}

// WithTransaction executes a function within a database transaction.
func (r *userRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo UserRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &userRepository{db: tx, obs: r.obs}
		return fn(ctx, txRepo)
	})
}
