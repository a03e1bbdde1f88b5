package services

import (
	"context"
	"errors"
	"strings"

	"github.com/nexamart/nexamart-backend-go/database"
	"github.com/nexamart/nexamart-backend-go/models"
	"github.com/nexamart/nexamart-backend-go/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuthService struct {
	users  UserStore
	tokens *utils.TokenManager
}

func NewAuthService(users UserStore, tokens *utils.TokenManager) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

type AuthResult struct {
	Token string
	User  *models.User
}

// Register creates a customer account. Accounts are never created with the
// admin role through this path.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return nil, models.BadRequest("Email already registered")
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    email,
		Password: hash,
		Phone:    in.Phone,
		Role:     models.RoleCustomer,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, models.BadRequest("Email already registered")
		}
		return nil, err
	}

	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		return nil, models.BadRequest("Invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPassword(user.Password, password) {
		return nil, models.BadRequest("Invalid credentials")
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.GenerateJWT(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) Profile(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, models.NotFound("User not found")
	}
	return user, err
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, update models.ProfileUpdate) (*models.User, error) {
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		update.Name = &name
	}
	user, err := s.users.UpdateProfile(ctx, userID, update)
	if errors.Is(err, database.ErrNotFound) {
		return nil, models.NotFound("User not found")
	}
	return user, err
}

func (s *AuthService) ChangePassword(ctx context.Context, userID primitive.ObjectID, oldPassword, newPassword string) error {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}
	if !utils.CheckPassword(user.Password, oldPassword) {
		return models.BadRequest("Old password incorrect")
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.SetPassword(ctx, userID, hash)
}
