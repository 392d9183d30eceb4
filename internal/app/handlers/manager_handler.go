package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	appContext "github.com/ujwegh/bookmart/internal/app/context"
	appErrors "github.com/ujwegh/bookmart/internal/app/errors"
	"github.com/ujwegh/bookmart/internal/app/models"
	"github.com/ujwegh/bookmart/internal/app/service"
)

type (
	ManagerHandler struct {
		settingsService  service.SettingsService
		promoCodeService service.PromoCodeService
		dashboardService service.DashboardService
		userService      service.UserService
		contextTimeout   time.Duration
	}
	SettingsDto struct {
		DepositPerc         decimal.Decimal `json:"deposit_perc"`
		BorrowPerc          decimal.Decimal `json:"borrow_perc"`
		DelayPerc           decimal.Decimal `json:"delay_perc"`
		DeliveryFees        decimal.Decimal `json:"delivery_fees"`
		MinBorrowFee        decimal.Decimal `json:"min_borrow_fee"`
		MaxNumOfBorrowBooks int             `json:"max_num_of_borrow_books"`
	}
	PromoCodeDto struct {
		ID           int64           `json:"id"`
		Code         string          `json:"code"`
		DiscountPerc decimal.Decimal `json:"discount_perc"`
		IsActive     bool            `json:"is_active"`
	}
	AddStaffDto struct {
		FirstName   string `json:"first_name"`
		LastName    string `json:"last_name"`
		Email       string `json:"email"`
		PhoneNumber string `json:"phone_number"`
		Password    string `json:"password"`
		Role        string `json:"role"`
	}
)

func NewManagerHandler(settingsService service.SettingsService,
	promoCodeService service.PromoCodeService,
	dashboardService service.DashboardService,
	userService service.UserService,
	contextTimeoutSec int) *ManagerHandler {
	return &ManagerHandler{
		settingsService:  settingsService,
		promoCodeService: promoCodeService,
		dashboardService: dashboardService,
		userService:      userService,
		contextTimeout:   time.Duration(contextTimeoutSec) * time.Second,
	}
}

func toSettingsDto(settings *models.Settings) SettingsDto {
	return SettingsDto{
		DepositPerc:         settings.DepositPerc,
		BorrowPerc:          settings.BorrowPerc,
		DelayPerc:           settings.DelayPerc,
		DeliveryFees:        settings.DeliveryFees,
		MinBorrowFee:        settings.MinBorrowFee,
		MaxNumOfBorrowBooks: settings.MaxNumOfBorrowBooks,
	}
}

func (mh *ManagerHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), mh.contextTimeout)
	defer cancel()

	settings, err := mh.settingsService.Get(ctx)
	if err != nil {
		PrepareError(w, err)
		return
	}
	err = appContext.GetContextError(ctx)
	if err != nil {
		PrepareError(w, err)
		return
	}
	writeJSONResponse(w, toSettingsDto(settings), http.StatusOK)
}

func (mh *ManagerHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), mh.contextTimeout)
	defer cancel()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		err = appErrors.NewWithCode(err, errMsgEnableReadBody, http.StatusBadRequest)
		PrepareError(w, err)
		return
	}
	dto := SettingsDto{}
	err = json.Unmarshal(body, &dto)
	if err != nil {
		err = appErrors.NewWithCode(err, "Unable to parse body", http.StatusBadRequest)
		PrepareError(w, err)
		return
	}

	settings, err := mh.settingsService.Update(ctx, &models.Settings{
		ID:                  1,
		DepositPerc:         dto.DepositPerc,
		BorrowPerc:          dto.BorrowPerc,
		DelayPerc:           dto.DelayPerc,
		DeliveryFees:        dto.DeliveryFees,
		MinBorrowFee:        dto.MinBorrowFee,
		MaxNumOfBorrowBooks: dto.MaxNumOfBorrowBooks,
	})
	if err != nil {
		PrepareError(w, err)
		return
	}
	err = appContext.GetContextError(ctx)
	if err != nil {
		PrepareError(w, err)
		return
	}
	writeJSONResponse(w, toSettingsDto(settings), http.StatusOK)
}

func (mh *ManagerHandler) CreatePromoCode(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), mh.contextTimeout)
	defer cancel()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		err = appErrors.NewWithCode(err, errMsgEnableReadBody, http.StatusBadRequest)
		PrepareError(w, err)
		return
	}
	dto := PromoCodeDto{}
	err = json.Unmarshal(body, &dto)
	if err != nil {
		err = appErrors.NewWithCode(err, "Unable to parse body", http.StatusBadRequest)
		PrepareError(w, err)
		return
	}

	promo, err := mh.promoCodeService.Create(ctx, dto.Code, dto.DiscountPerc, dto.IsActive)
	if err != nil {
		PrepareError(w, err)
		return
	}
	err = appContext.GetContextError(ctx)
	if err != nil {
		PrepareError(w, err)
		return
	}
	writeJSONResponse(w, PromoCodeDto{
		ID:           promo.ID,
		Code:         promo.Code,
		DiscountPerc: promo.DiscountPerc,
		IsActive:     promo.IsActive,
	}, http.StatusCreated)
}

func (mh *ManagerHandler) UpdatePromoCode(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), mh.contextTimeout)
	defer cancel()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		err = appErrors.NewWithCode(err, errMsgEnableReadBody, http.StatusBadRequest)
		PrepareError(w, err)
		return
	}
	dto := PromoCodeDto{}
	err = json.Unmarshal(body, &dto)
	if err != nil {
		err = appErrors.NewWithCode(err, "Unable to parse body", http.StatusBadRequest)
		PrepareError(w, err)
		return
	}

	promo, err := mh.promoCodeService.Update(ctx, &models.PromoCode{
		ID:           dto.ID,
		Code:         dto.Code,
		DiscountPerc: dto.DiscountPerc,
		IsActive:     dto.IsActive,
	})
	if err != nil {
		PrepareError(w, err)
		return
	}
	err = appContext.GetContextError(ctx)
	if err != nil {
		PrepareError(w, err)
		return
	}
	writeJSONResponse(w, PromoCodeDto{
		ID:           promo.ID,
		Code:         promo.Code,
		DiscountPerc: promo.DiscountPerc,
		IsActive:     promo.IsActive,
	}, http.StatusOK)
}

func (mh *ManagerHandler) ListPromoCodes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), mh.contextTimeout)
	defer cancel()

	promos, err := mh.promoCodeService.GetAll(ctx)
	if err != nil {
		PrepareError(w, err)
		return
	}
	err = appContext.GetContextError(ctx)
	if err != nil {
		PrepareError(w, err)
		return
	}
	dtos := make([]PromoCodeDto, 0, len(*promos))
	for _, promo := range *promos {
		dtos = append(dtos, PromoCodeDto{
			ID:           promo.ID,
			Code:         promo.Code,
			DiscountPerc: promo.DiscountPerc,
			IsActive:     promo.IsActive,
		})
	}
	writeJSONResponse(w, dtos, http.StatusOK)
}

func (mh *ManagerHandler) GetDashboardStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), mh.contextTimeout)
	defer cancel()

	stats, err := mh.dashboardService.GetDashboardStats(ctx)
	if err != nil {
		PrepareError(w, err)
		return
	}
	err = appContext.GetContextError(ctx)
	if err != nil {
		PrepareError(w, err)
		return
	}
	writeJSONResponse(w, stats, http.StatusOK)
}

// AddStaff lets a manager create employee, courier and manager accounts.
func (mh *ManagerHandler) AddStaff(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), mh.contextTimeout)
	defer cancel()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		err = appErrors.NewWithCode(err, errMsgEnableReadBody, http.StatusBadRequest)
		PrepareError(w, err)
		return
	}
	dto := AddStaffDto{}
	err = json.Unmarshal(body, &dto)
	if err != nil {
		err = appErrors.NewWithCode(err, "Unable to parse body", http.StatusBadRequest)
		PrepareError(w, err)
		return
	}

	role := models.UserRole(dto.Role)
	if role != models.EMPLOYEE && role != models.COURIER && role != models.MANAGER {
		PrepareError(w, appErrors.NewValidation("Role must be EMPLOYEE, COURIER or MANAGER"))
		return
	}
	if dto.Email == "" || dto.Password == "" {
		PrepareError(w, appErrors.NewValidation("Email and password are required"))
		return
	}

	user, err := mh.userService.Create(ctx, service.CreateUserInput{
		FirstName:   dto.FirstName,
		LastName:    dto.LastName,
		Email:       dto.Email,
		PhoneNumber: dto.PhoneNumber,
		Password:    dto.Password,
		Role:        role,
	})
	if err != nil {
		PrepareError(w, err)
		return
	}
	err = appContext.GetContextError(ctx)
	if err != nil {
		PrepareError(w, err)
		return
	}
	writeJSONResponse(w, map[string]interface{}{
		"message": "User added successfully!",
		"uuid":    user.UUID.String(),
	}, http.StatusCreated)
}
