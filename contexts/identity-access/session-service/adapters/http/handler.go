package httpadapter

import (
	"context"
	"log/slog"

	application "hireloop/contexts/identity-access/session-service/application"
	httptransport "hireloop/contexts/identity-access/session-service/transport/http"
)

// Handler maps HTTP DTOs to identity application calls.
type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) RegisterHandler(ctx context.Context, request httptransport.RegisterRequest) (httptransport.TokenPairResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("http register received",
		"event", "identity_http_register_received",
		"module", "identity-access/session-service",
		"layer", "transport",
		"role", request.Role,
	)

	pair, err := h.Service.Register(ctx, application.RegisterCommand{
		Email:     request.Email,
		Password:  request.Password,
		FirstName: request.FirstName,
		LastName:  request.LastName,
		Role:      request.Role,
	})
	if err != nil {
		return httptransport.TokenPairResponse{}, err
	}
	return tokenPairResponse(pair), nil
}

func (h Handler) LoginHandler(ctx context.Context, request httptransport.LoginRequest) (httptransport.TokenPairResponse, error) {
	pair, err := h.Service.Login(ctx, application.LoginCommand{
		Email:    request.Email,
		Password: request.Password,
	})
	if err != nil {
		return httptransport.TokenPairResponse{}, err
	}
	return tokenPairResponse(pair), nil
}

func (h Handler) MeHandler(ctx context.Context, claims application.Claims) (httptransport.ProfileResponse, error) {
	profile, err := h.Service.Me(ctx, claims)
	if err != nil {
		return httptransport.ProfileResponse{}, err
	}
	return httptransport.ProfileResponse{
		UserID:         profile.UserID,
		Email:          profile.Email,
		FirstName:      profile.FirstName,
		LastName:       profile.LastName,
		Role:           profile.Role,
		OrganizationID: profile.OrganizationID,
		CreatedAt:      profile.CreatedAt,
		UpdatedAt:      profile.UpdatedAt,
	}, nil
}

func tokenPairResponse(pair application.TokenPair) httptransport.TokenPairResponse {
	return httptransport.TokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    pair.ExpiresIn,
	}
}
