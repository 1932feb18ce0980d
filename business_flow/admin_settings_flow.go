// Package businessflow contains the core business logic and use cases for the voting workflows
package businessflow

import (
	"context"

	"github.com/mizeapp/mize-backend/app/dto"
	"github.com/mizeapp/mize-backend/repository"
)

// AdminSettingsFlow handles the runtime-tunable application settings
type AdminSettingsFlow interface {
	GetSettings(ctx context.Context) (*dto.AppSettingsResponse, error)
	UpdateSettings(ctx context.Context, req *dto.UpdateAppSettingsRequest, metadata *ClientMetadata) (*dto.AppSettingsResponse, error)
}

// AdminSettingsFlowImpl implements the admin settings business flow
type AdminSettingsFlowImpl struct {
	appConfigRepo repository.AppConfigRepository
}

// NewAdminSettingsFlow creates a new admin settings flow instance
func NewAdminSettingsFlow(appConfigRepo repository.AppConfigRepository) AdminSettingsFlow {
	return &AdminSettingsFlowImpl{appConfigRepo: appConfigRepo}
}

// GetSettings returns the current settings singleton
func (s *AdminSettingsFlowImpl) GetSettings(ctx context.Context) (*dto.AppSettingsResponse, error) {
	cfg, err := s.appConfigRepo.Get(ctx)
	if err != nil {
		return nil, NewBusinessError("SETTINGS_LOOKUP_FAILED", "Failed to load settings", err)
	}

	return &dto.AppSettingsResponse{ShowLikeButton: cfg.ShowLikeButton}, nil
}

// UpdateSettings applies a partial settings update
func (s *AdminSettingsFlowImpl) UpdateSettings(ctx context.Context, req *dto.UpdateAppSettingsRequest, metadata *ClientMetadata) (*dto.AppSettingsResponse, error) {
	if req.ShowLikeButton == nil {
		return nil, NewBusinessError("SETTINGS_VALIDATION_FAILED", "At least one setting must be provided", ErrSettingsFieldRequired)
	}

	cfg, err := s.appConfigRepo.Get(ctx)
	if err != nil {
		return nil, NewBusinessError("SETTINGS_LOOKUP_FAILED", "Failed to load settings", err)
	}

	cfg.ShowLikeButton = *req.ShowLikeButton
	if err := s.appConfigRepo.Update(ctx, *cfg); err != nil {
		return nil, NewBusinessError("SETTINGS_UPDATE_FAILED", "Failed to update settings", err)
	}

	return &dto.AppSettingsResponse{ShowLikeButton: cfg.ShowLikeButton}, nil
}
