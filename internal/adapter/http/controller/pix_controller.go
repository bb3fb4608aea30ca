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

type PixService interface {
	CreateKey(ctx context.Context, client domain.Client, req models.CreateKeyRequest) (commons.Response[models.PaymentKeyResponse], error)
	ListKeys(ctx context.Context, client domain.Client, accountNumber string) (commons.Response[models.PaymentKeyListResponse], error)
	DeactivateKey(ctx context.Context, client domain.Client, req models.DeleteKeyRequest) (commons.Response[any], error)
	TransferByKey(ctx context.Context, client domain.Client, sourceNumber string, req models.KeyTransferRequest) (commons.Response[models.KeyTransferResponse], error)
	ValidateKeyTransfer(ctx context.Context, client domain.Client, sourceNumber string, req models.KeyTransferRequest) (commons.Response[models.KeyTransferValidationResponse], error)
}

type PixController struct {
	service PixService
}

func NewPixController(service PixService) *PixController {
	return &PixController{service: service}
}

func (c *PixController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	wrap := func(h http.HandlerFunc) http.Handler {
		if authMiddleware != nil {
			return authMiddleware(h)
		}
		return h
	}

	mux.Handle("POST /pix/keys", wrap(c.createKey))
	mux.Handle("DELETE /pix/keys", wrap(c.deactivateKey))
	mux.Handle("GET /accounts/{number}/pix/keys", wrap(c.listKeys))
	mux.Handle("POST /accounts/{number}/pix/transfer", wrap(c.transferByKey))
	mux.Handle("POST /accounts/{number}/pix/transfer/validate", wrap(c.validateKeyTransfer))
}

func (c *PixController) createKey(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	client, ok := clientFromRequest[models.PaymentKeyResponse](w, r)
	if !ok {
		return
	}

	var req models.CreateKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		response := commons.ErrorResponse[models.PaymentKeyResponse]("invalid request body", err.Error())
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}
	logRequest(r, req)

	response, err := c.service.CreateKey(r.Context(), client, req)
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

func (c *PixController) deactivateKey(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	client, ok := clientFromRequest[any](w, r)
	if !ok {
		return
	}

	var req models.DeleteKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		response := commons.ErrorResponse[any]("invalid request body", err.Error())
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}
	logRequest(r, req)

	response, err := c.service.DeactivateKey(r.Context(), client, req)
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

func (c *PixController) listKeys(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	client, ok := clientFromRequest[models.PaymentKeyListResponse](w, r)
	if !ok {
		return
	}

	response, err := c.service.ListKeys(r.Context(), client, r.PathValue("number"))
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

func (c *PixController) transferByKey(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	client, ok := clientFromRequest[models.KeyTransferResponse](w, r)
	if !ok {
		return
	}

	var req models.KeyTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		response := commons.ErrorResponse[models.KeyTransferResponse]("invalid request body", err.Error())
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}
	logRequest(r, req)

	response, err := c.service.TransferByKey(r.Context(), client, r.PathValue("number"), req)
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

func (c *PixController) validateKeyTransfer(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	client, ok := clientFromRequest[models.KeyTransferValidationResponse](w, r)
	if !ok {
		return
	}

	var req models.KeyTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		response := commons.ErrorResponse[models.KeyTransferValidationResponse]("invalid request body", err.Error())
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}
	logRequest(r, req)

	response, err := c.service.ValidateKeyTransfer(r.Context(), client, r.PathValue("number"), req)
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
