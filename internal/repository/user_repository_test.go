package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"

	"userapi/internal/db"
	apperrors "userapi/internal/errors"
	"userapi/internal/model"
)

var userColumns = []string{"id", "name", "email", "password", "remember_token", "age", "gender", "address", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := db.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), "silent")
	require.NoError(t, err)

	return NewUserRepository(gormDB, nil), mock
}

func userRow(rows *sqlmock.Rows, id int, name, email string) *sqlmock.Rows {
	now := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	return rows.AddRow(id, name, email, "$2a$10$hash", nil, "30", "Female", "1 Main St", now, now)
}

func TestUserRepository_ListOrdersByIDDesc(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows(userColumns)
	userRow(rows, 2, "B", "b@example.com")
	userRow(rows, 1, "A", "a@example.com")
	mock.ExpectQuery("SELECT \\* FROM `users` ORDER BY id DESC").WillReturnRows(rows)

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, uint(2), users[0].ID)
	assert.Equal(t, uint(1), users[1].ID)
	assert.True(t, users[0].Age.Equal(decimal.NewFromInt(30)))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_ListEmpty(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT \\* FROM `users`").WillReturnRows(sqlmock.NewRows(userColumns))

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestUserRepository_FindByID(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows(userColumns)
	userRow(rows, 5, "Jane", "jane@example.com")
	mock.ExpectQuery("SELECT \\* FROM `users` WHERE `users`.`id` = \\?").WillReturnRows(rows)

	user, err := repo.FindByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Equal(t, "$2a$10$hash", user.PasswordHash)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT \\* FROM `users` WHERE `users`.`id` = \\?").WillReturnRows(sqlmock.NewRows(userColumns))

	user, err := repo.FindByID(context.Background(), 999999)
	assert.Nil(t, user)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestUserRepository_FindByIDStorageFailure(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT \\* FROM `users`").WillReturnError(errors.New("connection reset"))

	_, err := repo.FindByID(context.Background(), 1)
	require.Error(t, err)
	assert.False(t, errors.Is(err, apperrors.ErrUserNotFound))
}

func TestUserRepository_EmailTaken(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users` WHERE email = \\?$").
		WithArgs("jane@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(1))
	taken, err := repo.EmailTaken(context.Background(), "jane@example.com", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users` WHERE email = \\? AND id <> \\?").
		WithArgs("jane@example.com", 5).
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(0))
	taken, err = repo.EmailTaken(context.Background(), "jane@example.com", 5)
	require.NoError(t, err)
	assert.False(t, taken)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateInTransaction(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `users`").WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectCommit()

	user := &model.User{
		Name:         "Jane",
		Email:        "jane@example.com",
		PasswordHash: "$2a$10$hash",
		Age:          decimal.NewFromInt(30),
		Gender:       model.GenderFemale,
		Address:      "1 Main St",
	}
	err := repo.WithTransaction(context.Background(), func(ctx context.Context, tx UserRepository) error {
		return tx.Create(ctx, user)
	})
	require.NoError(t, err)
	assert.Equal(t, uint(7), user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateFailureRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `users`").WillReturnError(errors.New("Duplicate entry"))
	mock.ExpectRollback()

	err := repo.WithTransaction(context.Background(), func(ctx context.Context, tx UserRepository) error {
		return tx.Create(ctx, &model.User{Email: "jane@example.com"})
	})
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Update(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows(userColumns)
	userRow(rows, 3, "Old", "old@example.com")
	mock.ExpectQuery("SELECT \\* FROM `users` WHERE `users`.`id` = \\?").WillReturnRows(rows)
	mock.ExpectExec("UPDATE `users` SET").WillReturnResult(sqlmock.NewResult(0, 1))

	updated, err := repo.Update(context.Background(), 3, &model.User{
		Name:         "New",
		Email:        "new@example.com",
		PasswordHash: "$2a$10$other",
		Age:          decimal.NewFromFloat(41.5),
		Gender:       model.GenderMale,
		Address:      "2 Side St",
	})
	require.NoError(t, err)
	assert.Equal(t, uint(3), updated.ID)
	assert.Equal(t, "New", updated.Name)
	assert.Equal(t, "new@example.com", updated.Email)
	assert.Equal(t, "$2a$10$other", updated.PasswordHash)
	assert.Equal(t, model.GenderMale, updated.Gender)
	assert.Equal(t, "2 Side St", updated.Address)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdateNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT \\* FROM `users`").WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := repo.Update(context.Background(), 42, &model.User{Name: "x"})
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_DeleteReturnsSnapshot(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows(userColumns)
	userRow(rows, 4, "Gone", "gone@example.com")
	mock.ExpectQuery("SELECT \\* FROM `users` WHERE `users`.`id` = \\?").WillReturnRows(rows)
	mock.ExpectExec("DELETE FROM `users` WHERE `users`.`id` = \\?").WithArgs(4).WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := repo.Delete(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, uint(4), deleted.ID)
	assert.Equal(t, "gone@example.com", deleted.Email)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_DeleteNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT \\* FROM `users`").WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := repo.Delete(context.Background(), 42)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
