// Package businessflow contains the core business logic and use cases for the voting workflows
package businessflow

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/mizeapp/mize-backend/app/dto"
	"github.com/mizeapp/mize-backend/app/services"
	"github.com/mizeapp/mize-backend/utils"
	"golang.org/x/crypto/bcrypt"
)

// AdminAuthFlow handles the single-password admin authentication
type AdminAuthFlow interface {
	Login(ctx context.Context, req *dto.AdminLoginRequest, metadata *ClientMetadata) (*dto.AdminLoginResponse, error)
}

// AdminAuthFlowImpl implements the admin auth business flow
type AdminAuthFlowImpl struct {
	passwordHash string
	tokenService services.TokenService
	tokenTTL     time.Duration
}

// NewAdminAuthFlow creates a new admin auth flow instance
func NewAdminAuthFlow(passwordHash string, tokenService services.TokenService, tokenTTL time.Duration) AdminAuthFlow {
	return &AdminAuthFlowImpl{
		passwordHash: passwordHash,
		tokenService: tokenService,
		tokenTTL:     tokenTTL,
	}
}

// Login verifies the admin password and mints a bearer token
func (s *AdminAuthFlowImpl) Login(ctx context.Context, req *dto.AdminLoginRequest, metadata *ClientMetadata) (*dto.AdminLoginResponse, error) {
	if !s.passwordMatches(req.Password) {
		return nil, NewBusinessError("ADMIN_LOGIN_FAILED", "Incorrect password", ErrIncorrectAdminPassword)
	}

	token, err := s.tokenService.GenerateAdminToken()
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to generate token", err)
	}

	return &dto.AdminLoginResponse{
		Token:     token,
		ExpiresAt: utils.UTCNow().Add(s.tokenTTL),
	}, nil
}

// passwordMatches accepts a bcrypt hash in config, with a plaintext fallback
// for local development setups.
func (s *AdminAuthFlowImpl) passwordMatches(password string) bool {
	if strings.HasPrefix(s.passwordHash, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(s.passwordHash), []byte(password)) == 1
}
