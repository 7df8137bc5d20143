package service

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/yourusername/brainbolt-api/internal/domain/entity"
	"github.com/yourusername/brainbolt-api/internal/domain/repository"
	"github.com/yourusername/brainbolt-api/internal/handler/dto"
	apperrors "github.com/yourusername/brainbolt-api/internal/pkg/errors"
	"github.com/yourusername/brainbolt-api/pkg/auth"
)

// AuthService предоставляет методы для аутентификации и регистрации
type AuthService struct {
	db         *gorm.DB
	userRepo   repository.UserRepository
	stateRepo  repository.UserStateRepository
	lbRepo     repository.LeaderboardRepository
	jwtService *auth.JWTService
}

// NewAuthService создает новый сервис аутентификации
func NewAuthService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	stateRepo repository.UserStateRepository,
	lbRepo repository.LeaderboardRepository,
	jwtService *auth.JWTService,
) *AuthService {
	return &AuthService{
		db:         db,
		userRepo:   userRepo,
		stateRepo:  stateRepo,
		lbRepo:     lbRepo,
		jwtService: jwtService,
	}
}

// Register регистрирует нового пользователя. Пользователь, его начальное
// адаптивное состояние и нулевые строки лидербордов создаются одной транзакцией:
// у любого существующего пользователя эти записи гарантированно есть.
func (s *AuthService) Register(req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if _, err := s.userRepo.GetByEmail(req.Email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", apperrors.ErrConflict)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	if _, err := s.userRepo.GetByUsername(req.Username); err == nil {
		return nil, fmt.Errorf("%w: username already taken", apperrors.ErrConflict)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	user := &entity.User{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password, // хешируется хуком BeforeSave
		Role:     "user",
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.CreateTx(tx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		if err := s.stateRepo.CreateTx(tx, &entity.UserState{
			UserID:            user.ID,
			CurrentDifficulty: entity.MinDifficulty,
		}); err != nil {
			return fmt.Errorf("failed to create user state: %w", err)
		}
		if err := s.lbRepo.CreateRowsTx(tx, user.ID, user.Username); err != nil {
			return fmt.Errorf("failed to create leaderboard rows: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[AuthService] Зарегистрирован пользователь %s (ID=%d)", user.Username, user.ID)
	return s.buildAuthResponse(user)
}

// Login проверяет учетные данные и выдает токен доступа
func (s *AuthService) Login(req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Не раскрываем, существует ли email
			return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.CheckPassword(req.Password) {
		return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
	}

	return s.buildAuthResponse(user)
}

// GetCurrentUser возвращает пользователя по ID из токена
func (s *AuthService) GetCurrentUser(userID uint) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	resp := dto.NewUserResponse(user)
	return &resp, nil
}

func (s *AuthService) buildAuthResponse(user *entity.User) (*dto.AuthResponse, error) {
	token, err := s.jwtService.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &dto.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		User:        dto.NewUserResponse(user),
	}, nil
}
