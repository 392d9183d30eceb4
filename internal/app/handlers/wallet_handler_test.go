package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	appContext "github.com/ujwegh/bookmart/internal/app/context"
	appErrors "github.com/ujwegh/bookmart/internal/app/errors"
	"github.com/ujwegh/bookmart/internal/app/models"
)

type MockWalletService struct {
	mock.Mock
}

func (m *MockWalletService) PayFromWallet(ctx context.Context, tx *sqlx.Tx, userUID *uuid.UUID, orderID *int64, amount decimal.Decimal, description string, applyNegativeBalance bool) error {
	args := m.Called(ctx, tx, userUID, orderID, amount, description, applyNegativeBalance)
	return args.Error(0)
}

func (m *MockWalletService) AddToWallet(ctx context.Context, tx *sqlx.Tx, userUID *uuid.UUID, orderID *int64, amount decimal.Decimal, description string) error {
	args := m.Called(ctx, tx, userUID, orderID, amount, description)
	return args.Error(0)
}

func (m *MockWalletService) TopUp(ctx context.Context, userUID *uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, userUID, amount)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockWalletService) GetBalance(ctx context.Context, userUID *uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, userUID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockWalletService) GetTransactions(ctx context.Context, userUID *uuid.UUID) (*[]models.Transaction, error) {
	args := m.Called(ctx, userUID)
	return args.Get(0).(*[]models.Transaction), args.Error(1)
}

func TestWalletHandler_GetBalance(t *testing.T) {
	userUID := uuid.New()
	tests := []struct {
		name              string
		mockWalletService func() *MockWalletService
		contextTimeout    time.Duration
		wantStatusCode    int
		wantResponseBody  string
	}{
		{
			name: "Successful Balance Retrieval",
			mockWalletService: func() *MockWalletService {
				m := &MockWalletService{}
				m.On("GetBalance", mock.Anything, mock.Anything).Return(decimal.RequireFromString("100.50"), nil)
				return m
			},
			contextTimeout:   5 * time.Second,
			wantStatusCode:   http.StatusOK,
			wantResponseBody: "{\"balance\":\"100.50\"}",
		},
		{
			name: "Error In Fetching Balance",
			mockWalletService: func() *MockWalletService {
				m := &MockWalletService{}
				m.On("GetBalance", mock.Anything, mock.Anything).Return(decimal.Zero, errors.New("internal server error"))
				return m
			},
			contextTimeout:   5 * time.Second,
			wantStatusCode:   http.StatusInternalServerError,
			wantResponseBody: "{\"message\":\"Internal Server Error\",\"code\":500}",
		},
		{
			name: "Context Timeout",
			mockWalletService: func() *MockWalletService {
				m := &MockWalletService{}
				m.On("GetBalance", mock.Anything, mock.Anything).Return(decimal.RequireFromString("100.50"), nil)
				return m
			},
			contextTimeout:   0,
			wantStatusCode:   http.StatusInternalServerError,
			wantResponseBody: "{\"message\":\"Timeout exceeded\",\"code\":500}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest("GET", "/api/wallet/balance", nil)
			assert.NoError(t, err)

			ctx := appContext.WithUserUID(req.Context(), &userUID)
			req = req.WithContext(ctx)

			w := httptest.NewRecorder()

			wh := &WalletHandler{
				walletService:  tt.mockWalletService(),
				contextTimeout: tt.contextTimeout,
			}

			wh.GetBalance(w, req)

			assert.Equal(t, tt.wantStatusCode, w.Code)
			assert.Equal(t, tt.wantResponseBody, strings.TrimSpace(w.Body.String()))
		})
	}
}

func TestWalletHandler_TopUp(t *testing.T) {
	userUID := uuid.New()
	tests := []struct {
		name              string
		requestBody       string
		mockWalletService func() *MockWalletService
		wantStatusCode    int
		wantResponseBody  string
	}{
		{
			name:        "Successful Top Up",
			requestBody: "{\"amount\":\"25.50\"}",
			mockWalletService: func() *MockWalletService {
				m := &MockWalletService{}
				m.On("TopUp", mock.Anything, mock.Anything, mock.Anything).Return(decimal.RequireFromString("125.50"), nil)
				return m
			},
			wantStatusCode:   http.StatusOK,
			wantResponseBody: "{\"balance\":\"125.50\"}",
		},
		{
			name:        "Non Positive Amount",
			requestBody: "{\"amount\":\"0\"}",
			mockWalletService: func() *MockWalletService {
				m := &MockWalletService{}
				m.On("TopUp", mock.Anything, mock.Anything, mock.Anything).
					Return(decimal.Zero, appErrors.NewValidation("Top-up amount must be positive"))
				return m
			},
			wantStatusCode:   http.StatusBadRequest,
			wantResponseBody: "{\"message\":\"Top-up amount must be positive\",\"code\":400}",
		},
		{
			name:        "Malformed Body",
			requestBody: "not json",
			mockWalletService: func() *MockWalletService {
				return &MockWalletService{}
			},
			wantStatusCode:   http.StatusBadRequest,
			wantResponseBody: "{\"message\":\"Unable to parse body\",\"code\":400}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest("POST", "/api/wallet/top-up", strings.NewReader(tt.requestBody))
			assert.NoError(t, err)

			ctx := appContext.WithUserUID(req.Context(), &userUID)
			req = req.WithContext(ctx)

			w := httptest.NewRecorder()

			wh := &WalletHandler{
				walletService:  tt.mockWalletService(),
				contextTimeout: 5 * time.Second,
			}

			wh.TopUp(w, req)

			assert.Equal(t, tt.wantStatusCode, w.Code)
			assert.Equal(t, tt.wantResponseBody, strings.TrimSpace(w.Body.String()))
		})
	}
}
