package checkout

import (
	"errors"
	"net/http"

	"github.com/noah-isme/toko-pricing/internal/common"
	"github.com/noah-isme/toko-pricing/internal/discount"
	"github.com/noah-isme/toko-pricing/internal/pricing"
	"github.com/noah-isme/toko-pricing/internal/resilience"
	"github.com/noah-isme/toko-pricing/internal/stock"
)

// AppErrorFrom classifies a domain error for the HTTP layer.
func AppErrorFrom(err error) *common.AppError {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var (
		lines    *InvalidLinesError
		field    *pricing.ValidationError
		shortage *stock.ShortageError
		usage    *discount.UsageLimitError
		notApp   *discount.NotApplicableError
	)
	switch {
	case errors.As(err, &lines):
		return common.NewAppError(common.KindValidation, "VALIDATION_ERROR", "one or more lines are invalid",
			http.StatusUnprocessableEntity, err).WithDetails(lines.Lines)
	case errors.As(err, &field):
		return common.NewAppError(common.KindValidation, "VALIDATION_ERROR", field.Message,
			http.StatusUnprocessableEntity, err).WithDetails(field)
	case errors.As(err, &shortage):
		return common.NewAppError(common.KindBusiness, "INSUFFICIENT_STOCK", "some items are out of stock",
			http.StatusConflict, err).WithDetails(shortage.Items)
	case errors.As(err, &usage):
		return common.NewAppError(common.KindBusiness, "DISCOUNT_USAGE_LIMIT", "discount code has reached its usage limit",
			http.StatusUnprocessableEntity, err)
	case errors.As(err, &notApp):
		return common.NewAppError(common.KindBusiness, "DISCOUNT_NOT_APPLICABLE", notApp.Reason,
			http.StatusUnprocessableEntity, err)
	case errors.Is(err, discount.ErrNotFound):
		return common.NewAppError(common.KindBusiness, "DISCOUNT_NOT_FOUND", "discount code not found",
			http.StatusUnprocessableEntity, err)
	case errors.Is(err, resilience.ErrOpenCircuit):
		return common.NewAppError(common.KindInternal, "UNAVAILABLE", "discount service unavailable",
			http.StatusServiceUnavailable, err)
	case errors.Is(err, pricing.ErrUnknownStrategy):
		return common.NewAppError(common.KindConfiguration, "UNKNOWN_STRATEGY", err.Error(),
			http.StatusInternalServerError, err)
	default:
		return common.NewAppError(common.KindInternal, "INTERNAL", "internal error",
			http.StatusInternalServerError, err)
	}
}
