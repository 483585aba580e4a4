package httpio_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/corray333/backend-labs/pos/internal/service/models/order"
	"github.com/corray333/backend-labs/pos/internal/service/models/session"
	"github.com/corray333/backend-labs/pos/internal/service/models/table"
	"github.com/corray333/backend-labs/pos/internal/service/models/user"
	"github.com/corray333/backend-labs/pos/internal/transport/http/httpio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{order.ErrEmptyOrder, http.StatusBadRequest},
		{fmt.Errorf("scan: %w", table.ErrInvalidQR), http.StatusBadRequest},
		{session.ErrUnauthenticated, http.StatusUnauthorized},
		{user.ErrInvalidCredentials, http.StatusUnauthorized},
		{fmt.Errorf("%w waiter", session.ErrForbidden), http.StatusForbidden},
		{order.ErrOrderNotFound, http.StatusNotFound},
		{table.ErrTableUnavailable, http.StatusConflict},
		{order.ErrInvalidStatusTransition, http.StatusConflict},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, httpio.StatusOf(tt.err))
		})
	}
}

func TestError_Body(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	rr := httptest.NewRecorder()
	httpio.Error(rr, req, "set status", fmt.Errorf("%w kitchen", session.ErrForbidden))
	require.Equal(t, http.StatusForbidden, rr.Code)
	var resp httpio.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "set status: forbidden for role kitchen", resp.Error)
	assert.Equal(t, "/login", resp.Redirect)

	rr = httptest.NewRecorder()
	httpio.Error(rr, req, "list tables", errors.New("dial tcp: refused"))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	resp = httpio.ErrorResponse{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "list tables: internal error", resp.Error)
	assert.Empty(t, resp.Redirect)
}

func TestDecode(t *testing.T) {
	type body struct {
		Email string `json:"email" validate:"required,email"`
		Count int    `json:"count" validate:"gt=0"`
	}

	tests := []struct {
		name    string
		payload string
		details map[string]string
	}{
		{name: "valid", payload: `{"email":"a@b.co","count":1}`},
		{name: "unknown field", payload: `{"email":"a@b.co","count":1,"x":1}`},
		{name: "malformed", payload: `{"email":`},
		{
			name:    "invalid",
			payload: `{"email":"nope","count":0}`,
			details: map[string]string{"Email": "must be a valid email", "Count": "must be greater than 0"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.payload))
			var dst body
			err := httpio.Decode(req, &dst)
			if tt.name == "valid" {
				require.NoError(t, err)

				return
			}
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, httpio.StatusOf(err))

			rr := httptest.NewRecorder()
			httpio.Error(rr, req, "decode", err)
			var resp httpio.ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.Equal(t, tt.details, resp.Details)
		})
	}
}
