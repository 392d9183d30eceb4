package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	appContext "github.com/ujwegh/bookmart/internal/app/context"
	appErrors "github.com/ujwegh/bookmart/internal/app/errors"
	"github.com/ujwegh/bookmart/internal/app/service"
)

type (
	WalletHandler struct {
		walletService  service.WalletService
		contextTimeout time.Duration
	}
	BalanceDto struct {
		Balance string `json:"balance"`
	}
	TopUpDto struct {
		Amount decimal.Decimal `json:"amount"`
	}
	TransactionDto struct {
		ID              int64     `json:"id"`
		OrderID         *int64    `json:"order_id,omitempty"`
		Amount          string    `json:"amount"`
		TransactionType string    `json:"transaction_type"`
		Description     string    `json:"description"`
		CreatedAt       time.Time `json:"created_at"`
	}
)

func NewWalletHandler(walletService service.WalletService, contextTimeoutSec int) *WalletHandler {
	return &WalletHandler{
		walletService:  walletService,
		contextTimeout: time.Duration(contextTimeoutSec) * time.Second,
	}
}

func (wh *WalletHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), wh.contextTimeout)
	defer cancel()

	userUID := appContext.UserUID(r.Context())
	balance, err := wh.walletService.GetBalance(ctx, userUID)
	if err != nil {
		PrepareError(w, err)
		return
	}
	err = appContext.GetContextError(ctx)
	if err != nil {
		PrepareError(w, err)
		return
	}
	writeJSONResponse(w, BalanceDto{Balance: balance.StringFixed(2)}, http.StatusOK)
}

func (wh *WalletHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), wh.contextTimeout)
	defer cancel()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		err = appErrors.NewWithCode(err, errMsgEnableReadBody, http.StatusBadRequest)
		PrepareError(w, err)
		return
	}
	dto := TopUpDto{}
	err = json.Unmarshal(body, &dto)
	if err != nil {
		err = appErrors.NewWithCode(err, "Unable to parse body", http.StatusBadRequest)
		PrepareError(w, err)
		return
	}

	userUID := appContext.UserUID(r.Context())
	balance, err := wh.walletService.TopUp(ctx, userUID, dto.Amount)
	if err != nil {
		PrepareError(w, err)
		return
	}
	err = appContext.GetContextError(ctx)
	if err != nil {
		PrepareError(w, err)
		return
	}
	writeJSONResponse(w, BalanceDto{Balance: balance.StringFixed(2)}, http.StatusOK)
}

func (wh *WalletHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), wh.contextTimeout)
	defer cancel()

	userUID := appContext.UserUID(r.Context())
	transactions, err := wh.walletService.GetTransactions(ctx, userUID)
	if err != nil {
		PrepareError(w, err)
		return
	}
	err = appContext.GetContextError(ctx)
	if err != nil {
		PrepareError(w, err)
		return
	}
	dtos := make([]TransactionDto, 0, len(*transactions))
	for _, transaction := range *transactions {
		dtos = append(dtos, TransactionDto{
			ID:              transaction.ID,
			OrderID:         transaction.OrderID,
			Amount:          transaction.Amount.StringFixed(2),
			TransactionType: transaction.TransactionType.String(),
			Description:     transaction.Description,
			CreatedAt:       transaction.CreatedAt,
		})
	}
	writeJSONResponse(w, dtos, http.StatusOK)
}
