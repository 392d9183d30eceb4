package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	appErrors "github.com/ujwegh/bookmart/internal/app/errors"
	"github.com/ujwegh/bookmart/internal/app/models"
	"github.com/ujwegh/bookmart/internal/app/repository"
	"golang.org/x/crypto/bcrypt"
)

type (
	CreateUserInput struct {
		FirstName   string
		LastName    string
		Email       string
		PhoneNumber string
		Password    string
		Role        models.UserRole
	}
	UserService interface {
		Create(ctx context.Context, input CreateUserInput) (*models.User, error)
		Authenticate(ctx context.Context, email, password string) (*models.User, error)
		GetByUserEmail(ctx context.Context, email string) (*models.User, error)
		GetByUUID(ctx context.Context, userUID *uuid.UUID) (*models.User, error)
	}
	UserServiceImpl struct {
		userRepo repository.UserRepository
	}
)

func NewUserService(userRepo repository.UserRepository) *UserServiceImpl {
	return &UserServiceImpl{userRepo: userRepo}
}

func (us *UserServiceImpl) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := us.GetByUserEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		return nil, appErrors.NewWithCode(err, "Invalid password", http.StatusUnauthorized)
	}
	return user, nil
}

func (us *UserServiceImpl) GetByUserEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := us.userRepo.FindByEmail(ctx, email)
	if err != nil {
		appErr := &appErrors.ResponseCodeError{}
		if errors.As(err, appErr) {
			return nil, appErr
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (us *UserServiceImpl) GetByUUID(ctx context.Context, userUID *uuid.UUID) (*models.User, error) {
	user, err := us.userRepo.GetByUUID(ctx, userUID)
	if err != nil {
		return nil, appErrors.New(err, "get user")
	}
	return user, nil
}

func (us *UserServiceImpl) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	role := input.Role
	if role == "" {
		role = models.CLIENT
	}
	user := &models.User{
		UUID:         uuid.New(),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		PhoneNumber:  input.PhoneNumber,
		PasswordHash: generatePasswordHash(input.Password),
		Role:         role,
		CreatedAt:    time.Now(),
	}
	tx, err := us.userRepo.GetDB().BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := us.userRepo.Create(ctx, tx, user); err != nil {
		appErr := &appErrors.ResponseCodeError{}
		if errors.As(err, appErr) {
			return nil, appErrors.NewWithCode(err, appErr.Msg(), http.StatusConflict)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, tx.Commit()
}

func generatePasswordHash(password string) string {
	hashedBytes, err := bcrypt.GenerateFromPassword(
		[]byte(password), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Errorf("generate hash error: %w", err))
	}
	return string(hashedBytes)
}
