// Package httpio holds the request decoding and response writing shared by
// the HTTP handlers.
package httpio

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/corray333/backend-labs/pos/internal/service/models/completedorder"
	"github.com/corray333/backend-labs/pos/internal/service/models/currency"
	"github.com/corray333/backend-labs/pos/internal/service/models/menuitem"
	"github.com/corray333/backend-labs/pos/internal/service/models/order"
	"github.com/corray333/backend-labs/pos/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/pos/internal/service/models/session"
	"github.com/corray333/backend-labs/pos/internal/service/models/table"
	"github.com/corray333/backend-labs/pos/internal/service/models/user"
	"github.com/corray333/backend-labs/pos/internal/service/services/authsvc"
	"github.com/go-playground/validator/v10"
)

// LoginPath is where clients are sent when a role may not use an endpoint.
const LoginPath = "/login"

var ErrInvalidRequest = errors.New("invalid request")

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error    string            `json:"error"`
	Redirect string            `json:"redirect,omitempty"`
	Details  map[string]string `json:"details,omitempty"`
}

// Decode reads a JSON body into dst and validates it.
func Decode(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	return Validate(dst)
}

// Validate checks the validate tags of v.
func Validate(v any) error {
	return validate.Struct(v)
}

// JSON writes payload with the given status code.
func JSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to marshal response"}`))

		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

// Error writes err as an ErrorResponse prefixed by the failed action.
// Internal errors are logged and hidden from the client.
func Error(w http.ResponseWriter, r *http.Request, action string, err error) {
	code := StatusOf(err)
	resp := ErrorResponse{Error: action + ": " + err.Error()}

	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		resp.Error = action + ": validation failed"
		resp.Details = formatValidationErrors(validationErrs)
	case code == http.StatusForbidden:
		resp.Redirect = LoginPath
	case code == http.StatusInternalServerError:
		slog.ErrorContext(r.Context(), "Request failed", "action", action, "error", err)
		resp.Error = action + ": internal error"
	}
	if code != http.StatusInternalServerError {
		slog.DebugContext(r.Context(), "Request rejected", "action", action, "status", code, "error", err)
	}

	JSON(w, code, resp)
}

// StatusOf maps service errors to HTTP status codes.
func StatusOf(err error) int {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs),
		errors.Is(err, ErrInvalidRequest),
		errors.Is(err, order.ErrEmptyOrder),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, orderitem.ErrMissingMenuItem),
		errors.Is(err, orderitem.ErrInvalidQuantity),
		errors.Is(err, orderitem.ErrInvalidUnitPrice),
		errors.Is(err, table.ErrInvalidTableID),
		errors.Is(err, table.ErrInvalidQR),
		errors.Is(err, menuitem.ErrInvalidCategory),
		errors.Is(err, menuitem.ErrInvalidMenuItem),
		errors.Is(err, completedorder.ErrInvalidPaymentMethod),
		errors.Is(err, currency.ErrInvalidCurrency),
		errors.Is(err, session.ErrInvalidRole),
		errors.Is(err, authsvc.ErrWeakPassword),
		errors.Is(err, authsvc.ErrInvalidEmail):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrUnauthenticated),
		errors.Is(err, user.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, session.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, table.ErrTableNotFound),
		errors.Is(err, menuitem.ErrMenuItemNotFound),
		errors.Is(err, completedorder.ErrCompletedNotFound),
		errors.Is(err, user.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, table.ErrTableUnavailable),
		errors.Is(err, table.ErrTableExists),
		errors.Is(err, table.ErrTableAlreadyAvailable),
		errors.Is(err, order.ErrOrderClosed),
		errors.Is(err, order.ErrOrderNotReady),
		errors.Is(err, order.ErrInvalidStatusTransition),
		errors.Is(err, completedorder.ErrAlreadyArchived),
		errors.Is(err, user.ErrEmailTaken):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func formatValidationErrors(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			details[field] = "is required"
		case "email":
			details[field] = "must be a valid email"
		case "min", "gte":
			details[field] = "must be at least " + fe.Param()
		case "max":
			details[field] = "must be at most " + fe.Param()
		case "gt":
			details[field] = "must be greater than " + fe.Param()
		case "oneof":
			details[field] = "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
		default:
			details[field] = "failed " + fe.Tag() + " validation"
		}
	}

	return details
}
