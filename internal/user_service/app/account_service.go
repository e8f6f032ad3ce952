package app

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"

	numberdomain "github.com/dialhub/golang_services/internal/number_service/domain"
	"github.com/dialhub/golang_services/internal/platform/database"
	"github.com/dialhub/golang_services/internal/user_service/domain"
	"github.com/dialhub/golang_services/internal/user_service/repository"
	"github.com/google/uuid"
)

// AccountService keeps users and the numbers they own consistent.
// Ownership lives only on the number row, so there is nothing to sync on the user side.
type AccountService struct {
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	numbers          numberdomain.PhoneNumberRepository
	tx               database.Transactor
	logger           *slog.Logger
}

func NewAccountService(
	userRepo repository.UserRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	numbers numberdomain.PhoneNumberRepository,
	tx database.Transactor,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		numbers:          numbers,
		tx:               tx,
		logger:           logger.With("component", "account_service"),
	}
}

// DisableAccount disables the user, unassigns every number they own and
// revokes their sessions. All of it commits together or not at all.
func (s *AccountService) DisableAccount(ctx context.Context, userID uuid.UUID) error {
	var released int
	err := s.tx.WithinTx(ctx, func(q database.DBTX) error {
		user, err := s.userRepo.GetByIDForUpdate(ctx, q, userID)
		if err != nil {
			return err
		}
		user.Disable()
		if err := s.userRepo.Update(ctx, q, user); err != nil {
			return err
		}

		owned, err := s.numbers.ListByOwnerForUpdate(ctx, q, userID)
		if err != nil {
			return err
		}
		for _, n := range owned {
			n.Unassign()
			if err := s.numbers.Save(ctx, q, n); err != nil {
				return fmt.Errorf("unassigning number %s: %w", n.ID, err)
			}
		}
		released = len(owned)
		return s.refreshTokenRepo.InvalidateForUser(ctx, q, userID)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to disable account", "user_id", userID, "error", err)
		return err
	}
	s.logger.InfoContext(ctx, "Account disabled", "user_id", userID, "numbers_released", released)
	return nil
}

// ReplaceOwnedNumbers makes numberIDs the user's owned set. Numbers the user
// owns outside that set must be unassigned first, otherwise ErrOwnershipConflict
// is returned and nothing changes. Disabled accounts cannot receive numbers.
func (s *AccountService) ReplaceOwnedNumbers(ctx context.Context, userID uuid.UUID, numberIDs []uuid.UUID) ([]*numberdomain.PhoneNumber, error) {
	ids := uniqueSorted(numberIDs)
	wanted := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	var assigned []*numberdomain.PhoneNumber
	err := s.tx.WithinTx(ctx, func(q database.DBTX) error {
		user, err := s.userRepo.GetByIDForUpdate(ctx, q, userID)
		if err != nil {
			return err
		}
		if !user.IsEnabled {
			return fmt.Errorf("%w: %w", domain.ErrAccountDisabled, numberdomain.ErrUserDisabled)
		}
		owned, err := s.numbers.ListByOwnerForUpdate(ctx, q, userID)
		if err != nil {
			return err
		}
		for _, n := range owned {
			if _, ok := wanted[n.ID]; !ok {
				return fmt.Errorf("%w: number %s", domain.ErrOwnershipConflict, n.ID)
			}
		}

		assigned = make([]*numberdomain.PhoneNumber, 0, len(ids))
		for _, id := range ids {
			n, err := s.numbers.GetByIDForUpdate(ctx, q, id)
			if err != nil {
				return fmt.Errorf("number %s: %w", id, err)
			}
			if err := n.AssignToUser(userID); err != nil {
				return fmt.Errorf("number %s: %w", id, err)
			}
			if err := s.numbers.Save(ctx, q, n); err != nil {
				return err
			}
			assigned = append(assigned, n)
		}
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to replace owned numbers", "user_id", userID, "error", err)
		return nil, err
	}
	s.logger.InfoContext(ctx, "Owned numbers replaced", "user_id", userID, "count", len(assigned))
	return assigned, nil
}

// OwnedNumbers looks the user's numbers up through the number repository.
func (s *AccountService) OwnedNumbers(ctx context.Context, userID uuid.UUID) ([]*numberdomain.PhoneNumber, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.numbers.ListByOwner(ctx, userID)
}

// uniqueSorted orders ids so concurrent callers lock rows in the same order.
func uniqueSorted(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	return out
}
