package checkout

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-pricing/internal/common"
	"github.com/noah-isme/toko-pricing/internal/discount"
	"github.com/noah-isme/toko-pricing/internal/money"
	"github.com/noah-isme/toko-pricing/internal/pricing"
	"github.com/noah-isme/toko-pricing/internal/stock"
)

// HandlerConfig wires the HTTP handler.
type HandlerConfig struct {
	Service   *Service
	Validator *validator.Validate
}

// Handler exposes the pricing engine over HTTP.
type Handler struct {
	svc      *Service
	validate *validator.Validate
}

// NewHandler builds a Handler. A validator is created when none is supplied.
func NewHandler(cfg HandlerConfig) *Handler {
	v := cfg.Validator
	if v == nil {
		v = NewValidator()
	}
	return &Handler{svc: cfg.Service, validate: v}
}

// NewValidator returns a validator reporting JSON field names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Register mounts the pricing routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/pricing/strategies", h.Strategies)
	r.Post("/pricing/calculate", h.Calculate)
	r.Get("/tax/{country}", h.Tax)
	r.Post("/orders/total", h.OrderTotal)
	r.Post("/stock/check", h.StockCheck)
	r.Post("/discounts/check", h.DiscountCheck)
	r.Post("/checkout/quote", h.Quote)
}

type strategiesResponse struct {
	Default    string               `json:"default"`
	Strategies []pricing.Descriptor `json:"strategies"`
}

// Strategies lists registered strategies.
func (h *Handler) Strategies(w http.ResponseWriter, r *http.Request) {
	common.Data(w, http.StatusOK, strategiesResponse{
		Default:    h.svc.DefaultStrategy(),
		Strategies: h.svc.Strategies(),
	})
}

type calculateRequest struct {
	Strategy string         `json:"strategy"`
	Input    calculateInput `json:"input" validate:"required"`
}

type calculateInput struct {
	BasePrice       money.Money    `json:"basePrice" validate:"gt=0,lte=1000000000000000"`
	Quantity        int            `json:"quantity" validate:"gte=1,lte=1000000"`
	DiscountPercent *money.Percent `json:"discountPercent,omitempty"`
	DiscountAmount  *money.Money   `json:"discountAmount,omitempty"`
	TaxRate         *money.Rate    `json:"taxRate,omitempty"`
}

// Calculate prices one input. Strategy validation failures are 422 with the
// result body; an unknown strategy is a 500.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.svc.Calculate(req.Strategy, pricing.Input(req.Input))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if !res.Success {
		status = http.StatusUnprocessableEntity
	}
	common.Data(w, status, res)
}

// Tax resolves the tax for a country and optional subtotal.
func (h *Handler) Tax(w http.ResponseWriter, r *http.Request) {
	country := strings.TrimSpace(chi.URLParam(r, "country"))
	if country == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "country is required", nil)
		return
	}
	var subtotal money.Money
	if raw := strings.TrimSpace(r.URL.Query().Get("subtotal")); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "subtotal must be a non-negative integer", nil)
			return
		}
		subtotal = v
	}
	common.Data(w, http.StatusOK, h.svc.ResolveTax(country, subtotal))
}

// OrderTotal assembles subtotal, shipping, tax and discount.
func (h *Handler) OrderTotal(w http.ResponseWriter, r *http.Request) {
	var req OrderTotalRequest
	if !h.decode(w, r, &req) {
		return
	}
	common.Data(w, http.StatusOK, h.svc.OrderTotal(req))
}

type stockCheckRequest struct {
	Items []stockItem `json:"items" validate:"required,min=1,dive"`
}

type stockItem struct {
	Title     string `json:"title" validate:"required"`
	Requested int    `json:"requested" validate:"gte=1"`
	Available int    `json:"available" validate:"gte=0"`
}

// StockCheck reports every short item at once.
func (h *Handler) StockCheck(w http.ResponseWriter, r *http.Request) {
	var req stockCheckRequest
	if !h.decode(w, r, &req) {
		return
	}
	items := make([]stock.Item, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, stock.Item(it))
	}
	if err := h.svc.CheckStock(items); err != nil {
		h.writeError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, map[string]bool{"available": true})
}

type discountCheckRequest struct {
	Code string       `json:"code" validate:"required,max=64"`
	Cart discountCart `json:"cart"`
}

type discountCart struct {
	Total   money.Money     `json:"total" validate:"gte=0,lte=1000000000000000"`
	Country string          `json:"country" validate:"omitempty,len=2,alpha"`
	Items   []discount.Item `json:"items" validate:"dive"`
}

// DiscountCheck evaluates a discount code against a cart.
func (h *Handler) DiscountCheck(w http.ResponseWriter, r *http.Request) {
	var req discountCheckRequest
	if !h.decode(w, r, &req) {
		return
	}
	eval, err := h.svc.CheckDiscount(r.Context(), req.Code, discount.Cart{
		Total:       req.Cart.Total,
		CountryCode: strings.ToUpper(req.Cart.Country),
		Items:       req.Cart.Items,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, eval)
}

// Quote prices a full checkout.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if !h.decode(w, r, &req) {
		return
	}
	q, err := h.svc.Quote(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, q)
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large", nil)
			return false
		}
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
			return false
		}
		details := make([]fieldError, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, fieldError{Field: fieldPath(fe), Message: fieldMessage(fe)})
		}
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "request validation failed", details)
		return false
	}
	return true
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte", "min":
		return "must be at least " + fe.Param()
	case "lte", "max":
		return "must be at most " + fe.Param()
	case "len":
		return "must have length " + fe.Param()
	case "alpha":
		return "must contain letters only"
	default:
		return "is invalid"
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := AppErrorFrom(err)
	switch appErr.Kind {
	case common.KindConfiguration, common.KindInternal:
		evt := zerolog.Ctx(r.Context()).Error().Err(err).Str("code", appErr.Code)
		var unknown *pricing.UnknownStrategyError
		if errors.As(err, &unknown) {
			evt = evt.Str("strategy", unknown.Name)
		}
		evt.Msg("pricing request failed")
	}
	common.WriteError(w, appErr)
}
