package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"legalizador/internal/catalog"
	"legalizador/internal/common"
	"legalizador/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type UserServiceTestSuite struct {
	suite.Suite
	mockRepo  *MockUserRepository
	mockCache *MockCacheService
	service   *userService
}

func (suite *UserServiceTestSuite) SetupTest() {
	suite.mockRepo = &MockUserRepository{}
	suite.mockCache = &MockCacheService{}
	suite.mockRepo.Test(suite.T())
	suite.mockCache.Test(suite.T())

	authSvc := NewAuthService(suite.mockCache, suite.mockRepo, zap.NewNop(), "test-secret", time.Hour, 24*time.Hour)
	suite.service = NewUserService(suite.mockRepo, authSvc, suite.mockCache, zap.NewNop()).(*userService)
	suite.service.cost = bcrypt.MinCost
}

func (suite *UserServiceTestSuite) TearDownTest() {
	suite.mockRepo.AssertExpectations(suite.T())
	suite.mockCache.AssertExpectations(suite.T())
}

func TestUserServiceTestSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}

func (suite *UserServiceTestSuite) hashed(password string) string {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(suite.T(), err)
	return string(h)
}

func (suite *UserServiceTestSuite) TestRegister_Incomplete() {
	user, err := suite.service.Register(context.Background(), models.RegisterRequest{Email: "a@b.co"})
	assert.Nil(suite.T(), user)
	assert.True(suite.T(), errors.Is(err, common.ErrValidation))
	assert.Equal(suite.T(), "Datos incompletos", err.Error())
}

func (suite *UserServiceTestSuite) TestRegister_Duplicate() {
	ctx := context.Background()
	suite.mockRepo.On("GetByEmail", ctx, "ana@example.com").Return(&models.User{ID: 1}, nil)

	user, err := suite.service.Register(ctx, models.RegisterRequest{Name: "Ana", Email: " Ana@Example.com ", Password: "secret1"})
	assert.Nil(suite.T(), user)
	assert.True(suite.T(), errors.Is(err, common.ErrConflict))
	assert.Equal(suite.T(), "El usuario ya existe", err.Error())
}

func (suite *UserServiceTestSuite) TestRegister_Success() {
	ctx := context.Background()
	suite.mockRepo.On("GetByEmail", ctx, "ana@example.com").Return(nil, common.NotFound("Usuario no encontrado"))
	suite.mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil).Run(func(args mock.Arguments) {
		u := args.Get(1).(*models.User)
		u.ID = 10
		assert.Equal(suite.T(), catalog.RoleAuditor, u.Role)
		assert.Equal(suite.T(), catalog.UserActive, u.Status)
		assert.NoError(suite.T(), bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret1")))
	})

	user, err := suite.service.Register(ctx, models.RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "secret1"})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(10), user.ID)
}

func (suite *UserServiceTestSuite) TestLogin_MissingFields() {
	resp, err := suite.service.Login(context.Background(), models.LoginRequest{Email: "ana@example.com"})
	assert.Nil(suite.T(), resp)
	assert.Equal(suite.T(), "Email y contraseña requeridos", err.Error())
}

func (suite *UserServiceTestSuite) TestLogin_WrongPassword() {
	ctx := context.Background()
	suite.mockCache.On("IsRateLimited", ctx, "login:ana@example.com", loginAttemptLimit, loginAttemptWindow).Return(false, nil)
	suite.mockRepo.On("GetByEmail", ctx, "ana@example.com").Return(&models.User{
		ID: 1, Email: "ana@example.com", PasswordHash: suite.hashed("right"), Status: catalog.UserActive,
	}, nil)

	resp, err := suite.service.Login(ctx, models.LoginRequest{Email: "ana@example.com", Password: "wrong"})
	assert.Nil(suite.T(), resp)
	assert.True(suite.T(), errors.Is(err, common.ErrUnauthorized))
	assert.Equal(suite.T(), "Usuario o contraseña incorrectos", err.Error())
}

func (suite *UserServiceTestSuite) TestLogin_UnknownUser() {
	ctx := context.Background()
	suite.mockCache.On("IsRateLimited", ctx, mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
	suite.mockRepo.On("GetByEmail", ctx, "nadie@example.com").Return(nil, common.NotFound("Usuario no encontrado"))

	_, err := suite.service.Login(ctx, models.LoginRequest{Email: "nadie@example.com", Password: "x"})
	assert.True(suite.T(), errors.Is(err, common.ErrUnauthorized))
}

func (suite *UserServiceTestSuite) TestLogin_InactiveAfterPasswordCheck() {
	ctx := context.Background()
	suite.mockCache.On("IsRateLimited", ctx, mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
	suite.mockRepo.On("GetByEmail", ctx, "ana@example.com").Return(&models.User{
		ID: 1, Email: "ana@example.com", PasswordHash: suite.hashed("right"), Status: catalog.UserInactive,
	}, nil)

	_, err := suite.service.Login(ctx, models.LoginRequest{Email: "ana@example.com", Password: "right"})
	assert.True(suite.T(), errors.Is(err, common.ErrForbidden))
	assert.Equal(suite.T(), "El usuario está inactivo. Contacte al administrador.", err.Error())
}

func (suite *UserServiceTestSuite) TestLogin_RateLimited() {
	ctx := context.Background()
	suite.mockCache.On("IsRateLimited", ctx, mock.Anything, mock.Anything, mock.Anything).Return(true, nil)

	_, err := suite.service.Login(ctx, models.LoginRequest{Email: "ana@example.com", Password: "right"})
	assert.True(suite.T(), errors.Is(err, common.ErrForbidden))
}

func (suite *UserServiceTestSuite) TestLogin_Success() {
	ctx := context.Background()
	suite.mockCache.On("IsRateLimited", ctx, mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
	suite.mockCache.On("ResetRateLimit", ctx, "login:ana@example.com").Return(nil)
	suite.mockCache.On("SetRefreshToken", ctx, mock.AnythingOfType("*models.RefreshToken"), 24*time.Hour).Return(nil)
	suite.mockRepo.On("GetByEmail", ctx, "ana@example.com").Return(&models.User{
		ID: 1, Name: "Ana", Email: "ana@example.com", PasswordHash: suite.hashed("right"),
		Role: catalog.RoleAdministrator, Status: catalog.UserActive,
	}, nil)

	resp, err := suite.service.Login(ctx, models.LoginRequest{Email: "ana@example.com", Password: "right"})
	require.NoError(suite.T(), err)
	assert.NotEmpty(suite.T(), resp.AccessToken)
	assert.Equal(suite.T(), "Bearer", resp.TokenType)
	assert.Equal(suite.T(), "Administrador", resp.User.Role)
	assert.Equal(suite.T(), "Activo", resp.User.Status)
}

func (suite *UserServiceTestSuite) TestCreate_DefaultsToActive() {
	ctx := context.Background()
	suite.mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil).Run(func(args mock.Arguments) {
		u := args.Get(1).(*models.User)
		assert.Equal(suite.T(), catalog.RoleAdministrator, u.Role)
		assert.Equal(suite.T(), catalog.UserActive, u.Status)
	})

	view, err := suite.service.Create(ctx, models.CreateUserRequest{
		Name: "Luis", Email: "luis@example.com", Password: "secret1", Role: "Administrador",
	})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Administrador", view.Role)
	assert.Equal(suite.T(), "Activo", view.Status)
}

func (suite *UserServiceTestSuite) TestUpdate_RequiresID() {
	_, err := suite.service.Update(context.Background(), models.UpdateUserRequest{Name: "x"})
	assert.Equal(suite.T(), "ID requerido", err.Error())
}

func (suite *UserServiceTestSuite) TestUpdate_KeepsPasswordWhenEmpty() {
	ctx := context.Background()
	suite.mockRepo.On("Update", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.ID == 4 && u.PasswordHash == "" && u.Status == catalog.UserInactive
	})).Return(nil)
	suite.mockRepo.On("GetByID", ctx, int64(4)).Return(&models.User{
		ID: 4, Name: "Luis", Role: catalog.RoleAuditor, Status: catalog.UserInactive,
	}, nil)

	view, err := suite.service.Update(ctx, models.UpdateUserRequest{
		ID: 4, Name: "Luis", Email: "luis@example.com", Role: "Auditor", Status: "Inactivo",
	})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Inactivo", view.Status)
}

func (suite *UserServiceTestSuite) TestList_Translates() {
	ctx := context.Background()
	suite.mockRepo.On("List", ctx).Return([]*models.User{
		{ID: 1, Role: catalog.RoleAdministrator, Status: catalog.UserActive},
		{ID: 2, Role: catalog.RoleAuditor, Status: catalog.UserInactive},
	}, nil)

	views, err := suite.service.List(ctx)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), views, 2)
	assert.Equal(suite.T(), "Administrador", views[0].Role)
	assert.Equal(suite.T(), "Inactivo", views[1].Status)
}

func (suite *UserServiceTestSuite) TestEnsureAdministrator_CreatesWhenMissing() {
	ctx := context.Background()
	suite.mockRepo.On("GetByEmail", ctx, "admin@example.com").Return(nil, common.NotFound("Usuario no encontrado"))
	suite.mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil).Run(func(args mock.Arguments) {
		u := args.Get(1).(*models.User)
		assert.Equal(suite.T(), catalog.RoleAdministrator, u.Role)
		assert.Equal(suite.T(), catalog.UserActive, u.Status)
		assert.Equal(suite.T(), "Administrador", u.Name)
		assert.NoError(suite.T(), bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret1")))
	})

	created, err := suite.service.EnsureAdministrator(ctx, "", " Admin@Example.com", "secret1")
	suite.Require().NoError(err)
	assert.True(suite.T(), created)
}

func (suite *UserServiceTestSuite) TestEnsureAdministrator_KeepsExistingUser() {
	ctx := context.Background()
	suite.mockRepo.On("GetByEmail", ctx, "admin@example.com").
		Return(&models.User{ID: 1, Role: catalog.RoleAdministrator, PasswordHash: "old"}, nil)

	created, err := suite.service.EnsureAdministrator(ctx, "Ana", "admin@example.com", "secret1")
	suite.Require().NoError(err)
	assert.False(suite.T(), created)
	suite.mockRepo.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *UserServiceTestSuite) TestEnsureAdministrator_Errors() {
	ctx := context.Background()

	_, err := suite.service.EnsureAdministrator(ctx, "Ana", "", "secret1")
	assert.True(suite.T(), errors.Is(err, common.ErrValidation))

	dbErr := errors.New("connection refused")
	suite.mockRepo.On("GetByEmail", ctx, "admin@example.com").Return(nil, dbErr)
	_, err = suite.service.EnsureAdministrator(ctx, "Ana", "admin@example.com", "secret1")
	assert.ErrorIs(suite.T(), err, dbErr)
}
