package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apperrors "userapi/internal/errors"
	"userapi/internal/model"
)

func TestUserService_ListUsers(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("List", mock.Anything).Return([]model.User{{ID: 2}, {ID: 1}}, nil)

	users, err := NewUserService(repo, nil).ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, uint(2), users[0].ID)

	repo.AssertExpectations(t)
}

func TestUserService_GetUser(t *testing.T) {
	tests := []struct {
		name          string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name: "found",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByID", mock.Anything, uint(3)).Return(&model.User{ID: 3, Email: "a@example.com"}, nil)
			},
		},
		{
			name: "not found",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByID", mock.Anything, uint(3)).Return(nil, apperrors.ErrUserNotFound)
			},
			expectedError: apperrors.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			tt.setupMock(repo)

			user, err := NewUserService(repo, nil).GetUser(context.Background(), 3)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, uint(3), user.ID)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestUserService_CreateUser(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("EmailTaken", mock.Anything, "jane@example.com", uint(0)).Return(false, nil)
	repo.On("WithTransaction", mock.Anything).Return(nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*model.User).ID = 11
		}).
		Return(nil)

	user, err := NewUserService(repo, nil).CreateUser(context.Background(), validPayload())
	require.NoError(t, err)
	assert.Equal(t, uint(11), user.ID)
	assert.Equal(t, "Jane Doe", user.Name)
	assert.True(t, user.Age.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, model.GenderFemale, user.Gender)
	assert.NotEqual(t, "secret123", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")))

	repo.AssertExpectations(t)
}

func TestUserService_CreateUserValidationFailureNeverTouchesStorage(t *testing.T) {
	repo := new(MockUserRepository)

	payload := validPayload()
	delete(payload, "email")

	user, err := NewUserService(repo, nil).CreateUser(context.Background(), payload)
	assert.Nil(t, user)
	var verr *apperrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "email")

	repo.AssertNotCalled(t, "WithTransaction", mock.Anything)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUserService_CreateUserStorageFailure(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("EmailTaken", mock.Anything, mock.Anything, uint(0)).Return(false, nil)
	repo.On("WithTransaction", mock.Anything).Return(nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("insert failed"))

	user, err := NewUserService(repo, nil).CreateUser(context.Background(), validPayload())
	assert.Nil(t, user)
	assert.EqualError(t, err, "insert failed")
}

func TestUserService_UpdateUser(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("EmailTaken", mock.Anything, "jane@example.com", uint(5)).Return(false, nil)
	repo.On("WithTransaction", mock.Anything).Return(nil)
	repo.On("Update", mock.Anything, uint(5), mock.MatchedBy(func(u *model.User) bool {
		return u.Name == "Jane Doe" && u.Address == "1 Main St" && u.PasswordHash != "secret123"
	})).Return(&model.User{ID: 5, Name: "Jane Doe"}, nil)

	user, err := NewUserService(repo, nil).UpdateUser(context.Background(), 5, validPayload())
	require.NoError(t, err)
	assert.Equal(t, uint(5), user.ID)

	repo.AssertExpectations(t)
}

func TestUserService_UpdateUserNotFound(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("EmailTaken", mock.Anything, mock.Anything, uint(404)).Return(false, nil)
	repo.On("WithTransaction", mock.Anything).Return(nil)
	repo.On("Update", mock.Anything, uint(404), mock.Anything).Return(nil, apperrors.ErrUserNotFound)

	user, err := NewUserService(repo, nil).UpdateUser(context.Background(), 404, validPayload())
	assert.Nil(t, user)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestUserService_DeleteUser(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("WithTransaction", mock.Anything).Return(nil)
	repo.On("Delete", mock.Anything, uint(8)).Return(&model.User{ID: 8, Email: "gone@example.com"}, nil)

	user, err := NewUserService(repo, nil).DeleteUser(context.Background(), 8)
	require.NoError(t, err)
	assert.Equal(t, "gone@example.com", user.Email)

	repo.AssertExpectations(t)
}

func TestUserService_DeleteUserNotFound(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("WithTransaction", mock.Anything).Return(nil)
	repo.On("Delete", mock.Anything, uint(8)).Return(nil, apperrors.ErrUserNotFound)

	user, err := NewUserService(repo, nil).DeleteUser(context.Background(), 8)
	assert.Nil(t, user)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}
