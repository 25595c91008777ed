package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"legalizador/internal/caching"
	"legalizador/internal/catalog"
	"legalizador/internal/common"
	"legalizador/internal/models"
	"legalizador/internal/repositories"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	loginAttemptLimit  = 10
	loginAttemptWindow = 15 * time.Minute
)

// errBadCredentials is returned for an unknown email or a wrong password.
var errBadCredentials = common.Unauthorized("Usuario o contraseña incorrectos")

type UserService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Create(ctx context.Context, req models.CreateUserRequest) (*models.UserView, error)
	Update(ctx context.Context, req models.UpdateUserRequest) (*models.UserView, error)
	List(ctx context.Context) ([]models.UserView, error)
	Get(ctx context.Context, id int64) (*models.UserView, error)
	EnsureAdministrator(ctx context.Context, name, email, password string) (bool, error)
}

type userService struct {
	userRepo repositories.UserRepository
	authSvc  AuthService
	cacheSvc caching.CacheService
	logger   *zap.Logger
	cost     int
}

func NewUserService(userRepo repositories.UserRepository, authSvc AuthService, cacheSvc caching.CacheService, logger *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		authSvc:  authSvc,
		cacheSvc: cacheSvc,
		logger:   logger,
		cost:     bcrypt.DefaultCost,
	}
}

// Register creates an auditor account from the public sign-up form.
func (s *userService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" || strings.TrimSpace(req.Name) == "" {
		return nil, common.Validation("Datos incompletos")
	}

	if existing, err := s.userRepo.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, common.Conflict("El usuario ya existe")
	} else if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         catalog.RoleAuditor,
		Status:       catalog.UserActive,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("User registered", zap.Int64("user_id", user.ID))
	return user, nil
}

func (s *userService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, common.Validation("Email y contraseña requeridos")
	}

	limited, err := s.cacheSvc.IsRateLimited(ctx, "login:"+email, loginAttemptLimit, loginAttemptWindow)
	if err != nil {
		s.logger.Warn("Login rate limit check failed", zap.Error(err))
	} else if limited {
		return nil, common.Forbidden("Demasiados intentos. Intente más tarde.")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, errBadCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, errBadCredentials
	}
	if !user.IsActive() {
		return nil, common.Forbidden("El usuario está inactivo. Contacte al administrador.")
	}

	if err := s.cacheSvc.ResetRateLimit(ctx, "login:"+email); err != nil {
		s.logger.Warn("Failed to reset login attempts", zap.Error(err))
	}

	tokens, err := s.authSvc.GenerateTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	return &models.LoginResponse{TokenResponse: *tokens, User: models.NewUserView(user)}, nil
}

func (s *userService) Create(ctx context.Context, req models.CreateUserRequest) (*models.UserView, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, err
	}
	status := req.Status
	if status == "" {
		status = "Activo"
	}
	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        normalizeEmail(req.Email),
		PasswordHash: string(hash),
		Role:         catalog.RoleFromLabel(req.Role),
		Status:       catalog.UserStatusFromLabel(status),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	view := models.NewUserView(user)
	return &view, nil
}

// Update changes a user and keeps the password when none is sent.
func (s *userService) Update(ctx context.Context, req models.UpdateUserRequest) (*models.UserView, error) {
	if req.ID == 0 {
		return nil, common.Validation("ID requerido")
	}
	user := &models.User{
		ID:     int64(req.ID),
		Name:   strings.TrimSpace(req.Name),
		Email:  normalizeEmail(req.Email),
		Role:   catalog.RoleFromLabel(req.Role),
		Status: catalog.UserStatusFromLabel(req.Status),
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return s.Get(ctx, user.ID)
}

func (s *userService) List(ctx context.Context) ([]models.UserView, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]models.UserView, 0, len(users))
	for _, u := range users {
		views = append(views, models.NewUserView(u))
	}
	return views, nil
}

func (s *userService) Get(ctx context.Context, id int64) (*models.UserView, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := models.NewUserView(user)
	return &view, nil
}

// EnsureAdministrator creates an active administrator with the given
// credentials unless a user with that email already exists. An existing user
// is left untouched, password included. It reports whether a user was created.
func (s *userService) EnsureAdministrator(ctx context.Context, name, email, password string) (bool, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return false, common.Validation("Email y contraseña requeridos")
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		if existing.Role != catalog.RoleAdministrator {
			s.logger.Warn("Bootstrap administrator email belongs to a non-administrator",
				zap.Int64("user_id", existing.ID),
				zap.String("role", existing.Role))
		}
		return false, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return false, err
	}

	if strings.TrimSpace(name) == "" {
		name = "Administrador"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return false, err
	}
	user := &models.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         catalog.RoleAdministrator,
		Status:       catalog.UserActive,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return false, err
	}
	s.logger.Info("Administrator created", zap.Int64("user_id", user.ID))
	return true, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
