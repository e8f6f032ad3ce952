package app

import (
	"context"
	"log/slog"

	"github.com/dialhub/golang_services/internal/number_service/domain"
	"github.com/google/uuid"
)

// DirectoryService manages the shared phone directory.
type DirectoryService struct {
	repo          domain.DirectoryNumberRepository
	isPhoneNumber func(string) bool
	logger        *slog.Logger
}

func NewDirectoryService(repo domain.DirectoryNumberRepository, isPhoneNumber func(string) bool, logger *slog.Logger) *DirectoryService {
	return &DirectoryService{
		repo:          repo,
		isPhoneNumber: isPhoneNumber,
		logger:        logger.With("component", "directory_service"),
	}
}

func (s *DirectoryService) Create(ctx context.Context, label, phoneNumber string) (*domain.DirectoryNumber, error) {
	d, err := domain.NewDirectoryNumber(uuid.New(), label, phoneNumber, s.isPhoneNumber)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, d); err != nil {
		s.logger.WarnContext(ctx, "Failed to create directory entry", "phone_number", phoneNumber, "error", err)
		return nil, err
	}
	s.logger.InfoContext(ctx, "Directory entry created", "id", d.ID, "label", label)
	return d, nil
}

func (s *DirectoryService) List(ctx context.Context, offset, limit int) ([]*domain.DirectoryNumber, error) {
	return s.repo.List(ctx, offset, limit)
}

func (s *DirectoryService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Directory entry deleted", "id", id)
	return nil
}
