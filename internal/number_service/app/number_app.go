package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dialhub/golang_services/internal/number_service/domain"
	"github.com/dialhub/golang_services/internal/platform/database"
	"github.com/google/uuid"
)

// Notifier is told about assignments so the new holder can be informed.
type Notifier interface {
	NotifyNumberAssigned(ctx context.Context, actor string, userID uuid.UUID, number *domain.PhoneNumber) error
}

// NumberApplication coordinates phone number mutations. Every mutation locks
// the row, applies the domain transition and saves inside one transaction.
type NumberApplication struct {
	numbers       domain.PhoneNumberRepository
	usage         domain.UsageRepository
	directory     domain.ActorDirectory
	tx            database.Transactor
	notifier      Notifier
	isPhoneNumber func(string) bool
	logger        *slog.Logger
}

func NewNumberApplication(
	numbers domain.PhoneNumberRepository,
	usage domain.UsageRepository,
	directory domain.ActorDirectory,
	tx database.Transactor,
	notifier Notifier,
	isPhoneNumber func(string) bool,
	logger *slog.Logger,
) *NumberApplication {
	return &NumberApplication{
		numbers:       numbers,
		usage:         usage,
		directory:     directory,
		tx:            tx,
		notifier:      notifier,
		isPhoneNumber: isPhoneNumber,
		logger:        logger.With("component", "number_app"),
	}
}

// CreateNumber registers a carrier number together with its empty usage record.
func (a *NumberApplication) CreateNumber(ctx context.Context, number, ownerLabel string) (*domain.PhoneNumber, error) {
	n, err := domain.NewPhoneNumber(uuid.New(), number, a.isPhoneNumber)
	if err != nil {
		numberOperationsCounter.WithLabelValues("create", resultLabel(err)).Inc()
		return nil, err
	}
	usage := domain.NewUsageRecord(uuid.New(), n.ID, ownerLabel)

	err = a.tx.WithinTx(ctx, func(q database.DBTX) error {
		if err := a.numbers.Create(ctx, q, n); err != nil {
			return err
		}
		return a.usage.Create(ctx, q, usage)
	})
	numberOperationsCounter.WithLabelValues("create", resultLabel(err)).Inc()
	if err != nil {
		a.logger.ErrorContext(ctx, "Failed to create phone number", "number", number, "error", err)
		return nil, err
	}
	a.logger.InfoContext(ctx, "Phone number created", "number_id", n.ID, "number", number)
	return n, nil
}

// GetSummary returns the read model of one number.
func (a *NumberApplication) GetSummary(ctx context.Context, id uuid.UUID) (*domain.NumberSummary, error) {
	n, err := a.numbers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s, err := a.summarize(ctx, n, false)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSummaries pages through all numbers that are not deleted.
func (a *NumberApplication) ListSummaries(ctx context.Context, offset, limit int) ([]domain.NumberSummary, error) {
	numbers, err := a.numbers.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	return a.summarizeAll(ctx, numbers, false)
}

// ListOwnedSummaries lists a user's numbers. The user's own identity is left out of the actor.
func (a *NumberApplication) ListOwnedSummaries(ctx context.Context, userID uuid.UUID) ([]domain.NumberSummary, error) {
	numbers, err := a.numbers.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	return a.summarizeAll(ctx, numbers, true)
}

// EnsureOwner returns ErrNotFound unless userID currently holds the number.
func (a *NumberApplication) EnsureOwner(ctx context.Context, numberID, userID uuid.UUID) error {
	n, err := a.numbers.GetByID(ctx, numberID)
	if err != nil {
		return err
	}
	if owner, ok := n.OwnerUserID(); !ok || owner != userID {
		return domain.ErrNotFound
	}
	return nil
}

// AssignToUser binds a number to an enabled user and notifies them once committed.
// The user row stays share-locked until commit. actor names whoever made the change.
func (a *NumberApplication) AssignToUser(ctx context.Context, numberID, userID uuid.UUID, actor string) (*domain.PhoneNumber, error) {
	lockUser := func(q database.DBTX) error {
		user, err := a.directory.LockUser(ctx, q, userID)
		if err != nil {
			return fmt.Errorf("resolving user %s: %w", userID, err)
		}
		if !user.Enabled {
			return fmt.Errorf("%w: user %s", domain.ErrUserDisabled, userID)
		}
		return nil
	}
	n, err := a.mutateGuarded(ctx, numberID, "assign", lockUser, func(n *domain.PhoneNumber) error {
		return n.AssignToUser(userID)
	})
	if err != nil {
		return nil, err
	}
	if a.notifier != nil {
		if err := a.notifier.NotifyNumberAssigned(ctx, actor, userID, n); err != nil {
			a.logger.WarnContext(ctx, "Failed to notify user about assignment", "number_id", n.ID, "user_id", userID, "error", err)
		}
	}
	return n, nil
}

func (a *NumberApplication) Unassign(ctx context.Context, numberID uuid.UUID) (*domain.PhoneNumber, error) {
	return a.mutate(ctx, numberID, "unassign", func(n *domain.PhoneNumber) error {
		n.Unassign()
		return nil
	})
}

// MarkRedirected turns the number into a support line entry point.
func (a *NumberApplication) MarkRedirected(ctx context.Context, numberID, supportLineID uuid.UUID) (*domain.PhoneNumber, error) {
	if _, err := a.directory.GetSupportLine(ctx, supportLineID); err != nil {
		numberOperationsCounter.WithLabelValues("redirect", resultLabel(err)).Inc()
		return nil, fmt.Errorf("resolving support line %s: %w", supportLineID, err)
	}
	return a.mutate(ctx, numberID, "redirect", func(n *domain.PhoneNumber) error {
		return n.MarkRedirected(supportLineID)
	})
}

func (a *NumberApplication) ReleaseSupport(ctx context.Context, numberID uuid.UUID) (*domain.PhoneNumber, error) {
	return a.mutate(ctx, numberID, "release_support", func(n *domain.PhoneNumber) error {
		n.ReleaseSupport()
		return nil
	})
}

func (a *NumberApplication) AssociateRoom(ctx context.Context, numberID, roomID uuid.UUID) (*domain.PhoneNumber, error) {
	if _, err := a.directory.GetRoom(ctx, roomID); err != nil {
		numberOperationsCounter.WithLabelValues("associate_room", resultLabel(err)).Inc()
		return nil, fmt.Errorf("resolving room %s: %w", roomID, err)
	}
	return a.mutate(ctx, numberID, "associate_room", func(n *domain.PhoneNumber) error {
		return n.AssociateRoom(roomID)
	})
}

func (a *NumberApplication) ReleaseRoom(ctx context.Context, numberID uuid.UUID) (*domain.PhoneNumber, error) {
	return a.mutate(ctx, numberID, "release_room", func(n *domain.PhoneNumber) error {
		n.ReleaseRoom()
		return nil
	})
}

// Delete soft-deletes the number. Its row and usage history stay.
func (a *NumberApplication) Delete(ctx context.Context, numberID uuid.UUID) error {
	_, err := a.mutate(ctx, numberID, "delete", func(n *domain.PhoneNumber) error {
		n.MarkDeleted()
		return nil
	})
	return err
}

// UpdateForwarding applies a forwarding change. A target that is not a phone
// number clears forwarding instead of failing the request.
func (a *NumberApplication) UpdateForwarding(ctx context.Context, numberID uuid.UUID, target string, enabled bool) (*domain.PhoneNumber, error) {
	var rejected bool
	n, err := a.mutate(ctx, numberID, "update_forwarding", func(n *domain.PhoneNumber) error {
		var err error
		rejected, err = n.UpdateForwarding(target, enabled, a.isPhoneNumber)
		return err
	})
	if err != nil {
		return nil, err
	}
	if rejected {
		forwardingRejectedCounter.Inc()
		a.logger.WarnContext(ctx, "Forwarding target rejected, forwarding cleared", "number_id", numberID, "target", target)
	}
	return n, nil
}

// SetVoicemail toggles voicemail. storageKey is required when enabling.
func (a *NumberApplication) SetVoicemail(ctx context.Context, numberID uuid.UUID, enabled bool, storageKey string) (*domain.PhoneNumber, error) {
	return a.mutate(ctx, numberID, "set_voicemail", func(n *domain.PhoneNumber) error {
		if !enabled {
			n.DisableVoicemail()
			return nil
		}
		return n.EnableVoicemail(storageKey)
	})
}

func (a *NumberApplication) mutate(ctx context.Context, numberID uuid.UUID, op string, fn func(n *domain.PhoneNumber) error) (*domain.PhoneNumber, error) {
	return a.mutateGuarded(ctx, numberID, op, nil, fn)
}

// mutateGuarded runs guard in the transaction before the number row is locked.
// Locking the user first matches the order DisableAccount uses.
func (a *NumberApplication) mutateGuarded(ctx context.Context, numberID uuid.UUID, op string, guard func(q database.DBTX) error, fn func(n *domain.PhoneNumber) error) (*domain.PhoneNumber, error) {
	var updated *domain.PhoneNumber
	err := a.tx.WithinTx(ctx, func(q database.DBTX) error {
		if guard != nil {
			if err := guard(q); err != nil {
				return err
			}
		}
		n, err := a.numbers.GetByIDForUpdate(ctx, q, numberID)
		if err != nil {
			return err
		}
		if err := fn(n); err != nil {
			return err
		}
		if err := a.numbers.Save(ctx, q, n); err != nil {
			return err
		}
		updated = n
		return nil
	})
	numberOperationsCounter.WithLabelValues(op, resultLabel(err)).Inc()
	if err != nil {
		if isClientError(err) {
			a.logger.WarnContext(ctx, "Phone number operation refused", "operation", op, "number_id", numberID, "error", err)
		} else {
			a.logger.ErrorContext(ctx, "Phone number operation failed", "operation", op, "number_id", numberID, "error", err)
		}
		return nil, err
	}
	a.logger.InfoContext(ctx, "Phone number updated", "operation", op, "number_id", numberID,
		"association", updated.CurrentAssociationKind())
	return updated, nil
}

func (a *NumberApplication) summarizeAll(ctx context.Context, numbers []*domain.PhoneNumber, excludeIdentity bool) ([]domain.NumberSummary, error) {
	out := make([]domain.NumberSummary, 0, len(numbers))
	for _, n := range numbers {
		s, err := a.summarize(ctx, n, excludeIdentity)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (a *NumberApplication) summarize(ctx context.Context, n *domain.PhoneNumber, excludeIdentity bool) (domain.NumberSummary, error) {
	actor, err := n.DescribeActor(ctx, a.directory, excludeIdentity)
	if err != nil {
		return domain.NumberSummary{}, err
	}

	var report *domain.UsageReport
	record, err := a.usage.GetByPhoneNumberID(ctx, n.ID)
	switch {
	case err == nil:
		ownerName, err := a.ownerFullName(ctx, n, actor)
		if err != nil {
			return domain.NumberSummary{}, err
		}
		r := record.Report(n.Number, ownerName)
		report = &r
	case errors.Is(err, domain.ErrNotFound):
	default:
		return domain.NumberSummary{}, err
	}
	return n.Summary(actor, report), nil
}

// ownerFullName reuses the resolved actor when it is the owner, otherwise asks the directory.
func (a *NumberApplication) ownerFullName(ctx context.Context, n *domain.PhoneNumber, actor *domain.Actor) (string, error) {
	userID, ok := n.OwnerUserID()
	if !ok {
		return "", nil
	}
	if actor == nil || actor.Kind != domain.AssociationUser {
		var err error
		actor, err = a.directory.GetUser(ctx, userID)
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil
		}
		if err != nil {
			return "", err
		}
	}
	return strings.TrimSpace(actor.FirstName + " " + actor.LastName), nil
}
