package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	appContext "github.com/ujwegh/bookmart/internal/app/context"
	appErrors "github.com/ujwegh/bookmart/internal/app/errors"
	"github.com/ujwegh/bookmart/internal/app/models"
	"github.com/ujwegh/bookmart/internal/app/service"
)

const errMsgEnableReadBody = "Unable to read body"

type (
	UserHandler struct {
		userService    service.UserService
		tokenService   service.TokenService
		contextTimeout time.Duration
	}
	UserRegisterDto struct {
		FirstName   string `json:"first_name"`
		LastName    string `json:"last_name"`
		Email       string `json:"email"`
		PhoneNumber string `json:"phone_number"`
		Password    string `json:"password"`
	}
	UserLoginDto struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	UserProfileDto struct {
		UUID                 string `json:"uuid"`
		FirstName            string `json:"first_name"`
		LastName             string `json:"last_name"`
		Email                string `json:"email"`
		PhoneNumber          string `json:"phone_number"`
		Role                 string `json:"role"`
		Wallet               string `json:"wallet"`
		CurrentBorrowedBooks int    `json:"current_borrowed_books"`
	}
)

func NewUserHandler(userService service.UserService, tokenService service.TokenService, contextTimeoutSec int) *UserHandler {
	return &UserHandler{
		userService:    userService,
		tokenService:   tokenService,
		contextTimeout: time.Duration(contextTimeoutSec) * time.Second,
	}
}

// Register creates a client account and authenticates it in one step.
func (uh *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), uh.contextTimeout)
	defer cancel()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		err = appErrors.NewWithCode(err, errMsgEnableReadBody, http.StatusBadRequest)
		PrepareError(w, err)
		return
	}
	registerDto := UserRegisterDto{}
	err = json.Unmarshal(body, &registerDto)
	if err != nil {
		err = appErrors.NewWithCode(err, "Unable to parse body", http.StatusBadRequest)
		PrepareError(w, err)
		return
	}

	if registerDto.Email == "" || registerDto.Password == "" {
		PrepareError(w, appErrors.NewValidation("Email and password are required"))
		return
	}
	if registerDto.FirstName == "" || registerDto.LastName == "" {
		PrepareError(w, appErrors.NewValidation("First and last name are required"))
		return
	}

	user, err := uh.userService.Create(ctx, service.CreateUserInput{
		FirstName:   registerDto.FirstName,
		LastName:    registerDto.LastName,
		Email:       registerDto.Email,
		PhoneNumber: registerDto.PhoneNumber,
		Password:    registerDto.Password,
		Role:        models.CLIENT,
	})
	if err != nil {
		PrepareError(w, err)
		return
	}

	token, err := uh.tokenService.GenerateToken(user)
	if err != nil {
		PrepareError(w, err)
		return
	}

	err = appContext.GetContextError(ctx)
	if err != nil {
		PrepareError(w, err)
		return
	}
	bearerToken := fmt.Sprintf("Bearer %s", token)
	w.Header().Add("Authorization", bearerToken)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "%s", bearerToken)
}

// Login authenticates an email/password pair and returns a bearer token.
func (uh *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), uh.contextTimeout)
	defer cancel()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		err = appErrors.NewWithCode(err, errMsgEnableReadBody, http.StatusBadRequest)
		PrepareError(w, err)
		return
	}
	loginDto := UserLoginDto{}
	err = json.Unmarshal(body, &loginDto)
	if err != nil {
		err = appErrors.NewWithCode(err, "Unable to parse body", http.StatusBadRequest)
		PrepareError(w, err)
		return
	}

	if loginDto.Email == "" || loginDto.Password == "" {
		PrepareError(w, appErrors.NewValidation("Email and password are required"))
		return
	}

	user, err := uh.userService.Authenticate(ctx, loginDto.Email, loginDto.Password)
	if err != nil {
		PrepareError(w, err)
		return
	}

	token, err := uh.tokenService.GenerateToken(user)
	if err != nil {
		PrepareError(w, err)
		return
	}

	err = appContext.GetContextError(ctx)
	if err != nil {
		PrepareError(w, err)
		return
	}
	bearerToken := fmt.Sprintf("Bearer %s", token)
	w.Header().Add("Authorization", bearerToken)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "%s", bearerToken)
}

func (uh *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), uh.contextTimeout)
	defer cancel()

	userUID := appContext.UserUID(r.Context())
	user, err := uh.userService.GetByUUID(ctx, userUID)
	if err != nil {
		PrepareError(w, err)
		return
	}
	err = appContext.GetContextError(ctx)
	if err != nil {
		PrepareError(w, err)
		return
	}
	writeJSONResponse(w, UserProfileDto{
		UUID:                 user.UUID.String(),
		FirstName:            user.FirstName,
		LastName:             user.LastName,
		Email:                user.Email,
		PhoneNumber:          user.PhoneNumber,
		Role:                 user.Role.String(),
		Wallet:               user.Wallet.StringFixed(2),
		CurrentBorrowedBooks: user.CurrentBorrowedBooks,
	}, http.StatusOK)
}
