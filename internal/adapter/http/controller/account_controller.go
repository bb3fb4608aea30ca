package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/atlasbank/core-banking/internal/adapter/http/middleware"
	"github.com/atlasbank/core-banking/internal/adapter/http/models"
	"github.com/atlasbank/core-banking/internal/commons"
	"github.com/atlasbank/core-banking/internal/domain"
	"github.com/atlasbank/core-banking/internal/logger"
)

type AccountService interface {
	CreateAccount(ctx context.Context, client domain.Client, req models.CreateAccountRequest) (commons.Response[models.AccountResponse], error)
	ListAccounts(ctx context.Context, client domain.Client) (commons.Response[models.AccountListResponse], error)
	GetAccount(ctx context.Context, client domain.Client, number string) (commons.Response[models.AccountResponse], error)
	GetBalance(ctx context.Context, client domain.Client, number string) (commons.Response[models.BalanceResponse], error)
	DeactivateAccount(ctx context.Context, client domain.Client, number string) (commons.Response[models.AccountStatusResponse], error)
	ToggleAccountStatus(ctx context.Context, client domain.Client, number string) (commons.Response[models.AccountStatusResponse], error)
}

type AccountController struct {
	service AccountService
}

func NewAccountController(service AccountService) *AccountController {
	return &AccountController{service: service}
}

func (c *AccountController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	wrap := func(h http.HandlerFunc) http.Handler {
		if authMiddleware != nil {
			return authMiddleware(h)
		}
		return h
	}

	mux.Handle("POST /accounts", wrap(c.createAccount))
	mux.Handle("GET /accounts", wrap(c.listAccounts))
	mux.Handle("GET /accounts/{number}", wrap(c.getAccount))
	mux.Handle("GET /accounts/{number}/balance", wrap(c.getBalance))
	mux.Handle("DELETE /accounts/{number}", wrap(c.deactivateAccount))
	mux.Handle("PATCH /accounts/{number}/status", wrap(c.toggleStatus))
}

// clientFromRequest fetches the authenticated client injected by the bearer
// middleware. A miss means the route was mounted without it.
func clientFromRequest[T any](w http.ResponseWriter, r *http.Request) (domain.Client, bool) {
	client, ok := middleware.ClientFrom(r.Context())
	if !ok {
		response := commons.ErrorResponse[T]("unauthorized")
		writeJSON(w, http.StatusUnauthorized, response)
		return domain.Client{}, false
	}
	return client, true
}

func (c *AccountController) createAccount(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	client, ok := clientFromRequest[models.AccountResponse](w, r)
	if !ok {
		return
	}

	var req models.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		response := commons.ErrorResponse[models.AccountResponse]("invalid request body", err.Error())
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}
	logRequest(r, req)

	response, err := c.service.CreateAccount(r.Context(), client, req)
	if err != nil {
		logError(r, err, logger.Fields{"message": response.Message})
		status := statusForFailure(response.Message, err)
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	writeJSON(w, http.StatusCreated, response)
	logResponse(r, http.StatusCreated, response, start)
}

func (c *AccountController) listAccounts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	client, ok := clientFromRequest[models.AccountListResponse](w, r)
	if !ok {
		return
	}

	response, err := c.service.ListAccounts(r.Context(), client)
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

func (c *AccountController) getAccount(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	client, ok := clientFromRequest[models.AccountResponse](w, r)
	if !ok {
		return
	}

	response, err := c.service.GetAccount(r.Context(), client, r.PathValue("number"))
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

func (c *AccountController) getBalance(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	client, ok := clientFromRequest[models.BalanceResponse](w, r)
	if !ok {
		return
	}

	response, err := c.service.GetBalance(r.Context(), client, r.PathValue("number"))
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

func (c *AccountController) deactivateAccount(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	client, ok := clientFromRequest[models.AccountStatusResponse](w, r)
	if !ok {
		return
	}

	response, err := c.service.DeactivateAccount(r.Context(), client, r.PathValue("number"))
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

func (c *AccountController) toggleStatus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	client, ok := clientFromRequest[models.AccountStatusResponse](w, r)
	if !ok {
		return
	}

	response, err := c.service.ToggleAccountStatus(r.Context(), client, r.PathValue("number"))
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
