package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cmapi/internal/utils"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var userCols = []string{"id", "email", "hashed_password", "api_key", "credit", "is_active", "created_at"}

func TestUserRepo_GetByEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`(?s)^SELECT id,email,hashed_password,api_key,credit,is_active,created_at FROM users WHERE email=\? LIMIT 1$`).
		WithArgs("Alice@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(7, "Alice@example.com", "digest", "key", 0.0, true, now))

	u, err := repo.GetByEmail(context.Background(), "Alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), u.ID)
	assert.Equal(t, "Alice@example.com", u.Email, "email is kept as stored")
	assert.True(t, u.IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByAPIKey_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(`WHERE api_key=\? LIMIT 1`).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByAPIKey(context.Background(), "ghost")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestUserRepo_GetByID_DBError(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(`WHERE id=\? LIMIT 1`).WithArgs(uint64(1)).WillReturnError(errors.New("db down"))

	_, err := repo.GetByID(context.Background(), 1)
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`db error: .*db down`), err.Error())
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestUserRepo_List(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM users ORDER BY id LIMIT \? OFFSET \?`).
		WithArgs(2, 10).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(11, "a@x", "d", "k1", 0.0, true, now).
			AddRow(12, "b@x", "d", "k2", 1.5, false, now))

	users, err := repo.List(context.Background(), 10, 2)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "b@x", users[1].Email)
	assert.Equal(t, 1.5, users[1].Credit)
}

func TestUserRepo_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)
	now := time.Now().UTC()
	digest := utils.HashPassword("pw", "salt")

	mock.ExpectExec(`INSERT INTO users \(email, hashed_password, api_key, credit, is_active\) VALUES \(\?,\?,\?,\?,\?\)`).
		WithArgs("new@x", digest, sqlmock.AnyArg(), 0.0, true).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery(`WHERE id=\? LIMIT 1`).WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(42, "new@x", digest, "generated", 0.0, true, now))

	u, err := repo.Create(context.Background(), "new@x", "pw", "salt")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), u.ID)
	assert.Equal(t, digest, u.HashedPassword)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Create_DuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	_, err := repo.Create(context.Background(), "dup@x", "pw", "salt")
	assert.True(t, errors.Is(err, ErrEmailExists))
}

var cmCols = []string{"id", "uid", "owner_id", "created_at"}

func TestCMRepo_CreateAndGet(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCMRepo(db)
	now := time.Now().UTC()

	mock.ExpectExec(`INSERT INTO cms \(uid, owner_id\) VALUES \(\?,\?\)`).
		WithArgs("abcd1234:tok", uint64(3)).
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectQuery(`SELECT id,uid,owner_id,created_at FROM cms WHERE uid=\? LIMIT 1`).
		WithArgs("abcd1234:tok").
		WillReturnRows(sqlmock.NewRows(cmCols).AddRow(5, "abcd1234:tok", 3, now))

	created, err := repo.Create(context.Background(), "abcd1234:tok", 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), created.ID)

	got, err := repo.GetByUID(context.Background(), "abcd1234:tok")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), got.OwnerID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCMRepo_GetByUID_NotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`FROM cms WHERE uid=\?`).WillReturnError(sql.ErrNoRows)

	_, err := NewCMRepo(db).GetByUID(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCMRepo_ListAndListByOwner(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCMRepo(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM cms ORDER BY id LIMIT \? OFFSET \?`).WithArgs(100, 0).
		WillReturnRows(sqlmock.NewRows(cmCols).AddRow(1, "a:1", 1, now).AddRow(2, "b:2", 2, now))
	mock.ExpectQuery(`FROM cms WHERE owner_id=\? ORDER BY id`).WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows(cmCols).AddRow(2, "b:2", 2, now))

	all, err := repo.List(context.Background(), 0, 100)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := repo.ListByOwner(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "b:2", mine[0].UID)
}

func TestCMRepo_ListByOwner_Empty(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`WHERE owner_id=\?`).WithArgs(uint64(9)).WillReturnRows(sqlmock.NewRows(cmCols))

	got, err := NewCMRepo(db).ListByOwner(context.Background(), 9)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCMRepo_DeleteByUID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCMRepo(db)

	mock.ExpectExec(`DELETE FROM cms WHERE uid=\? LIMIT 1`).WithArgs("a:1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM cms WHERE uid=\? LIMIT 1`).WithArgs("a:1").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.DeleteByUID(context.Background(), "a:1"))
	assert.True(t, errors.Is(repo.DeleteByUID(context.Background(), "a:1"), ErrNotFound))
}
