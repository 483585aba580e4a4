package tables

import (
	"context"
	"net/http"

	"github.com/corray333/backend-labs/pos/internal/service/models/session"
	"github.com/corray333/backend-labs/pos/internal/service/models/table"
	"github.com/corray333/backend-labs/pos/internal/transport/http/httpio"
	"github.com/corray333/backend-labs/pos/internal/transport/http/httpsession"
	"github.com/go-chi/chi/v5"
)

// service is an interface for the service layer.
type service interface {
	CreateTable(ctx context.Context, sess session.Session, id string) (*table.Table, error)
	ListTables(ctx context.Context, sess session.Session) ([]table.Table, error)
	ScanTable(ctx context.Context, sess session.Session, payload string) (*table.Table, error)
	Release(ctx context.Context, sess session.Session, id string) (*table.Table, error)
	FreeTable(ctx context.Context, sess session.Session, id string) (*table.Table, error)
}

type CreateTableRequest struct {
	ID string `json:"id" validate:"required,max=32"`
}

type ScanRequest struct {
	Payload string `json:"payload" validate:"required"`
}

// ScanResponse tells the waiter whether a new order can be opened.
type ScanResponse struct {
	Table     table.Table `json:"table"`
	Available bool        `json:"available"`
}

func List(w http.ResponseWriter, r *http.Request, service service) {
	tables, err := service.ListTables(r.Context(), httpsession.From(r.Context()))
	if err != nil {
		httpio.Error(w, r, "list tables", err)

		return
	}

	httpio.JSON(w, http.StatusOK, tables)
}

func Create(w http.ResponseWriter, r *http.Request, service service) {
	var req CreateTableRequest
	if err := httpio.Decode(r, &req); err != nil {
		httpio.Error(w, r, "create table", err)

		return
	}

	t, err := service.CreateTable(r.Context(), httpsession.From(r.Context()), req.ID)
	if err != nil {
		httpio.Error(w, r, "create table", err)

		return
	}

	httpio.JSON(w, http.StatusCreated, t)
}

// Scan resolves a scanned QR payload.
func Scan(w http.ResponseWriter, r *http.Request, service service) {
	var req ScanRequest
	if err := httpio.Decode(r, &req); err != nil {
		httpio.Error(w, r, "scan table", err)

		return
	}

	t, err := service.ScanTable(r.Context(), httpsession.From(r.Context()), req.Payload)
	if err != nil {
		httpio.Error(w, r, "scan table", err)

		return
	}

	httpio.JSON(w, http.StatusOK, ScanResponse{Table: *t, Available: t.Available()})
}

// Free deletes the open order of a table and makes it available.
func Free(w http.ResponseWriter, r *http.Request, service service) {
	t, err := service.FreeTable(r.Context(), httpsession.From(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		httpio.Error(w, r, "free table", err)

		return
	}

	httpio.JSON(w, http.StatusOK, t)
}

func Release(w http.ResponseWriter, r *http.Request, service service) {
	t, err := service.Release(r.Context(), httpsession.From(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		httpio.Error(w, r, "release table", err)

		return
	}

	httpio.JSON(w, http.StatusOK, t)
}
