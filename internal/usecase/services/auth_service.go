package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/atlasbank/core-banking/internal/adapter/http/models"
	"github.com/atlasbank/core-banking/internal/adapter/repository/repo_interfaces"
	"github.com/atlasbank/core-banking/internal/auth"
	"github.com/atlasbank/core-banking/internal/commons"
	"github.com/atlasbank/core-banking/internal/domain"
	"github.com/atlasbank/core-banking/internal/logger"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	clientRepo repo_interfaces.ClientRepository
	jwtSecret  string
	tokenTTL   time.Duration
}

func NewAuthService(clientRepo repo_interfaces.ClientRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		clientRepo: clientRepo,
		jwtSecret:  jwtSecret,
		tokenTTL:   tokenTTL,
	}
}

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (commons.Response[models.RegisterResponse], error) {
	logger.Info("auth service register request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		logger.Error("auth service register validation failed", err, nil)
		return commons.ErrorResponse[models.RegisterResponse]("validation failed", err.Error()), err
	}

	birthDate, _ := time.Parse("2006-01-02", strings.TrimSpace(req.BirthDate))

	passwordHash, err := hashPassword(strings.TrimSpace(req.Password))
	if err != nil {
		logger.Error("auth service register hash password failed", err, nil)
		return commons.ErrorResponse[models.RegisterResponse]("failed to register", "Unable to register right now"), err
	}

	client := domain.Client{
		CPF:          strings.TrimSpace(req.CPF),
		Name:         strings.TrimSpace(req.Name),
		BirthDate:    birthDate,
		Address:      strings.TrimSpace(req.Address),
		PasswordHash: passwordHash,
		Active:       true,
	}

	created, err := s.clientRepo.Create(ctx, client)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateCPF) {
			return commons.ErrorResponse[models.RegisterResponse]("CPF already registered"), err
		}
		logger.Error("auth service register repository failed", err, logger.Fields{
			"cpf": client.CPF,
		})
		return commons.ErrorResponse[models.RegisterResponse]("failed to register", "Unable to register right now"), err
	}

	response := models.RegisterResponse{
		ClientID: created.ID,
		CPF:      created.CPF,
		Name:     created.Name,
	}

	logger.Info("auth service register success", logger.Fields{
		"clientId": response.ClientID,
		"cpf":      response.CPF,
	})

	return commons.SuccessResponse("client registered successfully", response), nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (commons.Response[models.LoginResponse], error) {
	logger.Info("auth service login request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		logger.Error("auth service login validation failed", err, nil)
		return commons.ErrorResponse[models.LoginResponse]("validation failed", err.Error()), err
	}

	client, err := s.clientRepo.GetByCPF(ctx, strings.TrimSpace(req.CPF))
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			// Same message for an unknown CPF and a wrong password.
			return commons.ErrorResponse[models.LoginResponse]("Invalid CPF or password"), domain.ErrInvalidCredentials
		}
		logger.Error("auth service login lookup failed", err, nil)
		return commons.ErrorResponse[models.LoginResponse]("failed to login", "Unable to login right now"), err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(client.PasswordHash), []byte(strings.TrimSpace(req.Password))); err != nil {
		logger.Info("auth service login password mismatch", logger.Fields{
			"cpf": client.CPF,
		})
		return commons.ErrorResponse[models.LoginResponse]("Invalid CPF or password"), domain.ErrInvalidCredentials
	}

	if !client.Active {
		return commons.ErrorResponse[models.LoginResponse]("Client is inactive"), domain.ErrInvalidCredentials
	}

	accessToken, err := auth.NewAccessToken(s.jwtSecret, client.CPF, s.tokenTTL)
	if err != nil {
		logger.Error("auth service login sign token failed", err, nil)
		return commons.ErrorResponse[models.LoginResponse]("failed to login", "Unable to login right now"), err
	}

	response := models.LoginResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresIn:   int(s.tokenTTL.Seconds()),
	}

	logger.Info("auth service login success", logger.Fields{
		"cpf": client.CPF,
	})

	return commons.SuccessResponse("login successful", response), nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
