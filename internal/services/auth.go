package services

import (
	"time"

	"github.com/taskloom/taskloom/backend/internal/config"
	"github.com/taskloom/taskloom/backend/internal/models"
	"github.com/taskloom/taskloom/backend/internal/utils"
	"github.com/taskloom/taskloom/backend/pkg/response"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = response.NewUnauthorized("invalid username or password")
	ErrUsernameTaken      = response.NewConflict("username already taken")
	ErrEmailTaken         = response.NewConflict("email already registered")
)

type AuthService struct {
	db  *gorm.DB
	cfg *config.JWTConfig
}

func NewAuthService(db *gorm.DB, cfg *config.JWTConfig) *AuthService {
	return &AuthService{db: db, cfg: cfg}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Nickname string `json:"nickname"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates a user account. If an inactive placeholder row exists
// for the email (created by a project invitation), the registration
// claims it, keeping any pending memberships attached to the account.
func (s *AuthService) Register(req *RegisterRequest) (*models.User, error) {
	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	var user models.User

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		tx.Model(&models.User{}).
			Where("username = ? AND is_active = ?", req.Username, true).
			Count(&count)
		if count > 0 {
			return ErrUsernameTaken
		}

		err := tx.Where("email = ?", req.Email).First(&user).Error
		if err == nil {
			if user.IsActive {
				return ErrEmailTaken
			}
			// Claim the placeholder created by an invitation
			user.Username = req.Username
			user.Password = hashed
			user.Nickname = req.Nickname
			user.IsActive = true
			return tx.Save(&user).Error
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		user = models.User{
			Username: req.Username,
			Email:    req.Email,
			Password: hashed,
			Nickname: req.Nickname,
			IsActive: true,
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Login verifies credentials and issues a JWT.
func (s *AuthService) Login(req *LoginRequest) (*LoginResponse, error) {
	var user models.User
	err := s.db.Where("(username = ? OR email = ?) AND is_active = ?",
		req.Username, req.Username, true).
		First(&user).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(user.ID, user.Username, s.cfg.ExpireHour)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	s.db.Model(&user).Update("last_login", &now)
	user.LastLogin = &now

	return &LoginResponse{Token: token, User: &user}, nil
}

// GetUserByID returns a user's profile.
func (s *AuthService) GetUserByID(userID uint) (*models.User, error) {
	var user models.User
	err := s.db.First(&user, userID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

type UpdateProfileRequest struct {
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

// UpdateProfile changes the user's display fields.
func (s *AuthService) UpdateProfile(userID uint, req *UpdateProfileRequest) (*models.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	if req.Nickname != "" {
		user.Nickname = req.Nickname
	}
	if req.Avatar != "" {
		user.Avatar = req.Avatar
	}
	if err := s.db.Save(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}
