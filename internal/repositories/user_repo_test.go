package repositories

import (
	"context"
	"testing"
	"time"

	"legalizador/internal/common"
	"legalizador/internal/models"

	pgx "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var userCols = []string{"id", "name", "email", "password", "role", "status", "created_at"}

type UserRepoTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	repo    UserRepository
	context context.Context
}

func (suite *UserRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	require.NoError(suite.T(), err)
	suite.mock = mock
	suite.repo = NewUserRepo(mock)
	suite.context = context.Background()
}

func (suite *UserRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestUserRepoTestSuite(t *testing.T) {
	suite.Run(t, new(UserRepoTestSuite))
}

func (suite *UserRepoTestSuite) TestCreate_Success() {
	created := time.Now()
	user := &models.User{Name: "Ana", Email: "ana@example.com", PasswordHash: "hash", Role: "Auditor", Status: "Active"}
	suite.mock.ExpectQuery(`INSERT INTO users \(name, email, password, role, status, created_at\)`).
		WithArgs("Ana", "ana@example.com", "hash", "Auditor", "Active").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(3), created))

	err := suite.repo.Create(suite.context, user)

	suite.NoError(err)
	suite.Equal(int64(3), user.ID)
}

func (suite *UserRepoTestSuite) TestCreate_DuplicateEmail() {
	suite.mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := suite.repo.Create(suite.context, &models.User{Email: "ana@example.com"})

	suite.ErrorIs(err, common.ErrConflict)
	suite.Equal("El usuario ya existe", common.PublicMessage(err, ""))
}

func (suite *UserRepoTestSuite) TestGetByEmail() {
	suite.mock.ExpectQuery(`FROM users WHERE email = \$1`).WithArgs("ana@example.com").
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(int64(3), "Ana", "ana@example.com", "hash", "Administrator", "Active", time.Now()))

	user, err := suite.repo.GetByEmail(suite.context, "ana@example.com")

	suite.Require().NoError(err)
	suite.Equal("hash", user.PasswordHash)
	suite.Equal("Administrator", user.Role)
}

func (suite *UserRepoTestSuite) TestGetByID_NotFound() {
	suite.mock.ExpectQuery(`FROM users WHERE id = \$1`).WithArgs(int64(9)).
		WillReturnError(pgx.ErrNoRows)

	_, err := suite.repo.GetByID(suite.context, 9)

	suite.ErrorIs(err, common.ErrNotFound)
}

func (suite *UserRepoTestSuite) TestUpdate_KeepsPasswordWhenEmpty() {
	user := &models.User{ID: 3, Name: "Ana", Email: "ana@example.com", Role: "Auditor", Status: "Inactive"}
	suite.mock.ExpectExec(`password = COALESCE\(NULLIF\(\$3, ''\), password\)`).
		WithArgs("Ana", "ana@example.com", "", "Auditor", "Inactive", int64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	suite.NoError(suite.repo.Update(suite.context, user))
}

func (suite *UserRepoTestSuite) TestUpdate_NotFound() {
	suite.mock.ExpectExec(`UPDATE users`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := suite.repo.Update(suite.context, &models.User{ID: 42})

	suite.ErrorIs(err, common.ErrNotFound)
}

func (suite *UserRepoTestSuite) TestList() {
	now := time.Now()
	suite.mock.ExpectQuery(`FROM users ORDER BY id`).
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(int64(1), "Ana", "ana@example.com", "h1", "Administrator", "Active", now).
			AddRow(int64(2), "Luis", "luis@example.com", "h2", "Auditor", "Inactive", now))

	users, err := suite.repo.List(suite.context)

	suite.NoError(err)
	suite.Len(users, 2)
	suite.Equal("Luis", users[1].Name)
}
