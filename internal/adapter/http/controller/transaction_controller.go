package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/atlasbank/core-banking/internal/adapter/http/models"
	"github.com/atlasbank/core-banking/internal/commons"
	"github.com/atlasbank/core-banking/internal/domain"
	"github.com/atlasbank/core-banking/internal/logger"
)

type TransactionService interface {
	Withdraw(ctx context.Context, client domain.Client, accountNumber string, req models.WithdrawRequest) (commons.Response[models.LedgerEntryResponse], error)
	Deposit(ctx context.Context, client domain.Client, accountNumber string, req models.DepositRequest) (commons.Response[models.LedgerEntryResponse], error)
	Transfer(ctx context.Context, client domain.Client, sourceNumber string, req models.TransferRequest) (commons.Response[models.TransferResponse], error)
	ValidateTransfer(ctx context.Context, client domain.Client, sourceNumber string, req models.TransferRequest) (commons.Response[models.TransferValidationResponse], error)
	Statement(ctx context.Context, client domain.Client, accountNumber string, from *time.Time, to *time.Time, kindFilter string) (commons.Response[models.StatementResponse], error)
}

type TransactionController struct {
	service TransactionService
}

func NewTransactionController(service TransactionService) *TransactionController {
	return &TransactionController{service: service}
}

func (c *TransactionController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	wrap := func(h http.HandlerFunc) http.Handler {
		if authMiddleware != nil {
			return authMiddleware(h)
		}
		return h
	}

	mux.Handle("POST /accounts/{number}/withdraw", wrap(c.withdraw))
	mux.Handle("POST /accounts/{number}/deposit", wrap(c.deposit))
	mux.Handle("POST /accounts/{number}/transfer", wrap(c.transfer))
	mux.Handle("POST /accounts/{number}/transfer/validate", wrap(c.validateTransfer))
	mux.Handle("GET /accounts/{number}/statement", wrap(c.statement))
}

func (c *TransactionController) withdraw(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	client, ok := clientFromRequest[models.LedgerEntryResponse](w, r)
	if !ok {
		return
	}

	var req models.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		response := commons.ErrorResponse[models.LedgerEntryResponse]("invalid request body", err.Error())
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}
	logRequest(r, req)

	response, err := c.service.Withdraw(r.Context(), client, r.PathValue("number"), req)
	if err != nil {
		logError(r, err, logger.Fields{"message": response.Message})
		status := statusForFailure(response.Message, err)
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *TransactionController) deposit(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	client, ok := clientFromRequest[models.LedgerEntryResponse](w, r)
	if !ok {
		return
	}

	var req models.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		response := commons.ErrorResponse[models.LedgerEntryResponse]("invalid request body", err.Error())
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}
	logRequest(r, req)

	response, err := c.service.Deposit(r.Context(), client, r.PathValue("number"), req)
	if err != nil {
		logError(r, err, logger.Fields{"message": response.Message})
		status := statusForFailure(response.Message, err)
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *TransactionController) transfer(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	client, ok := clientFromRequest[models.TransferResponse](w, r)
	if !ok {
		return
	}

	var req models.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		response := commons.ErrorResponse[models.TransferResponse]("invalid request body", err.Error())
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}
	logRequest(r, req)

	response, err := c.service.Transfer(r.Context(), client, r.PathValue("number"), req)
	if err != nil {
		logError(r, err, logger.Fields{"message": response.Message})
		status := statusForFailure(response.Message, err)
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *TransactionController) validateTransfer(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	client, ok := clientFromRequest[models.TransferValidationResponse](w, r)
	if !ok {
		return
	}

	var req models.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		response := commons.ErrorResponse[models.TransferValidationResponse]("invalid request body", err.Error())
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}
	logRequest(r, req)

	response, err := c.service.ValidateTransfer(r.Context(), client, r.PathValue("number"), req)
	if err != nil {
		logError(r, err, logger.Fields{"message": response.Message})
		status := statusForFailure(response.Message, err)
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *TransactionController) statement(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	client, ok := clientFromRequest[models.StatementResponse](w, r)
	if !ok {
		return
	}

	from, err := parseTimeParam(r.URL.Query().Get("from"))
	if err != nil {
		response := commons.ErrorResponse[models.StatementResponse]("validation failed", "from must be an RFC 3339 timestamp or YYYY-MM-DD date")
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}
	to, err := parseTimeParam(r.URL.Query().Get("to"))
	if err != nil {
		response := commons.ErrorResponse[models.StatementResponse]("validation failed", "to must be an RFC 3339 timestamp or YYYY-MM-DD date")
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}

	response, err := c.service.Statement(r.Context(), client, r.PathValue("number"), from, to, r.URL.Query().Get("kind"))
	if err != nil {
		logError(r, err, logger.Fields{"message": response.Message})
		status := statusForFailure(response.Message, err)
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func parseTimeParam(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return &parsed, nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
