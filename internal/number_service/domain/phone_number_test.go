package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPhone(s string) bool {
	return len(s) > 1 && len(s) <= 13 && s[0] == '+'
}

func newNumber(t *testing.T) *PhoneNumber {
	t.Helper()
	n, err := NewPhoneNumber(uuid.New(), "+14155550100", validPhone)
	require.NoError(t, err)
	return n
}

// atMostOneAssociation checks the stored projection never carries two references.
func atMostOneAssociation(t *testing.T, n *PhoneNumber) {
	t.Helper()
	kind, owner, room, support := n.AssociationColumns()
	set := 0
	for _, p := range []*uuid.UUID{owner, room, support} {
		if p != nil {
			set++
		}
	}
	if kind == AssociationNone {
		assert.Equal(t, 0, set)
	} else {
		assert.Equal(t, 1, set)
	}
}

func TestNewPhoneNumber(t *testing.T) {
	_, err := NewPhoneNumber(uuid.New(), "nope", validPhone)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	n := newNumber(t)
	assert.Equal(t, AssociationNone, n.CurrentAssociationKind())
	assert.False(t, n.IsDeleted)
}

func TestPhoneNumber_AssignToUser(t *testing.T) {
	userA, userB := uuid.New(), uuid.New()

	t.Run("Success", func(t *testing.T) {
		n := newNumber(t)
		require.NoError(t, n.AssignToUser(userA))
		assert.Equal(t, AssociationUser, n.CurrentAssociationKind())
		owner, ok := n.OwnerUserID()
		assert.True(t, ok)
		assert.Equal(t, userA, owner)
		atMostOneAssociation(t, n)
	})

	t.Run("LastWriteWins", func(t *testing.T) {
		n := newNumber(t)
		require.NoError(t, n.AssignToUser(userA))
		require.NoError(t, n.AssignToUser(userB))
		owner, _ := n.OwnerUserID()
		assert.Equal(t, userB, owner)
	})

	t.Run("RoomAssociated", func(t *testing.T) {
		n := newNumber(t)
		require.NoError(t, n.AssociateRoom(uuid.New()))
		assert.ErrorIs(t, n.AssignToUser(userA), ErrNotAssignable)
		assert.Equal(t, AssociationConference, n.CurrentAssociationKind())
	})

	t.Run("SupportNumber", func(t *testing.T) {
		n := newNumber(t)
		require.NoError(t, n.MarkRedirected(uuid.New()))
		assert.ErrorIs(t, n.AssignToUser(userA), ErrNotAssignable)
	})

	t.Run("Deleted", func(t *testing.T) {
		n := newNumber(t)
		n.MarkDeleted()
		assert.ErrorIs(t, n.AssignToUser(userA), ErrNumberDeleted)
	})

	t.Run("NilUser", func(t *testing.T) {
		n := newNumber(t)
		assert.ErrorIs(t, n.AssignToUser(uuid.Nil), ErrInvalidArgument)
	})
}

func TestPhoneNumber_Unassign(t *testing.T) {
	t.Run("ClearsUserAndForwarding", func(t *testing.T) {
		n := newNumber(t)
		require.NoError(t, n.AssignToUser(uuid.New()))
		_, err := n.UpdateForwarding("+14155550111", true, validPhone)
		require.NoError(t, err)

		n.Unassign()
		assert.Equal(t, AssociationNone, n.CurrentAssociationKind())
		assert.False(t, n.IsForwarded)
		assert.Nil(t, n.ForwardedNumber)
		_, ok := n.OwnerUserID()
		assert.False(t, ok)
	})

	t.Run("KeepsRoom", func(t *testing.T) {
		n := newNumber(t)
		room := uuid.New()
		require.NoError(t, n.AssociateRoom(room))
		n.Unassign()
		assert.Equal(t, Association{Kind: AssociationConference, RefID: room}, n.Association())
	})

	t.Run("KeepsSupport", func(t *testing.T) {
		n := newNumber(t)
		require.NoError(t, n.MarkRedirected(uuid.New()))
		n.Unassign()
		assert.True(t, n.IsSupportNumber())
	})
}

func TestPhoneNumber_MarkRedirected(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(n *PhoneNumber)
		wantErr error
	}{
		{"Unbound", func(n *PhoneNumber) {}, nil},
		{"AlreadySupport", func(n *PhoneNumber) { _ = n.MarkRedirected(uuid.New()) }, nil},
		{"UserOwned", func(n *PhoneNumber) { _ = n.AssignToUser(uuid.New()) }, ErrNotAssignable},
		{"RoomAssociated", func(n *PhoneNumber) { _ = n.AssociateRoom(uuid.New()) }, ErrNotAssignable},
		{"Deleted", func(n *PhoneNumber) { n.MarkDeleted() }, ErrNumberDeleted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newNumber(t)
			tt.prepare(n)
			before := n.Association()
			line := uuid.New()

			err := n.MarkRedirected(line)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, before, n.Association())
				return
			}
			require.NoError(t, err)
			assert.True(t, n.IsSupportNumber())
			assert.Equal(t, line, n.Association().RefID)
			atMostOneAssociation(t, n)
		})
	}
}

func TestPhoneNumber_RoomTransitions(t *testing.T) {
	n := newNumber(t)
	room := uuid.New()
	require.NoError(t, n.AssociateRoom(room))
	assert.True(t, n.IsRoomAssociated())
	assert.Equal(t, AssociationConference, n.CurrentAssociationKind())

	n.ReleaseSupport()
	assert.True(t, n.IsRoomAssociated())

	n.ReleaseRoom()
	assert.Equal(t, AssociationNone, n.CurrentAssociationKind())

	require.NoError(t, n.AssignToUser(uuid.New()))
	assert.ErrorIs(t, n.AssociateRoom(room), ErrNotAssignable)
	n.ReleaseRoom()
	assert.Equal(t, AssociationUser, n.CurrentAssociationKind())
}

func TestPhoneNumber_ReleaseSupport(t *testing.T) {
	n := newNumber(t)
	require.NoError(t, n.MarkRedirected(uuid.New()))
	assert.ErrorIs(t, n.AssociateRoom(uuid.New()), ErrNotAssignable)
	n.ReleaseSupport()
	assert.Equal(t, AssociationNone, n.CurrentAssociationKind())
	require.NoError(t, n.AssociateRoom(uuid.New()))
}

func TestPhoneNumber_MarkDeleted_Idempotent(t *testing.T) {
	once := newNumber(t)
	require.NoError(t, once.AssignToUser(uuid.New()))
	_, err := once.UpdateForwarding("+14155550111", true, validPhone)
	require.NoError(t, err)
	twice := &PhoneNumber{ID: once.ID, Number: once.Number}
	require.NoError(t, twice.RestoreAssociation(once.AssociationColumns()))
	twice.ForwardedNumber, twice.IsForwarded = once.ForwardedNumber, once.IsForwarded

	once.MarkDeleted()
	twice.MarkDeleted()
	twice.MarkDeleted()

	assert.Equal(t, once.IsDeleted, twice.IsDeleted)
	assert.Equal(t, once.Association(), twice.Association())
	assert.Equal(t, once.IsForwarded, twice.IsForwarded)
	assert.Equal(t, once.ForwardedNumber, twice.ForwardedNumber)
	assert.True(t, twice.IsDeleted)
	assert.Equal(t, AssociationNone, twice.CurrentAssociationKind())
}

func TestPhoneNumber_UpdateForwarding(t *testing.T) {
	target := "+14155550111"

	t.Run("ValidAndEnabled", func(t *testing.T) {
		n := newNumber(t)
		rejected, err := n.UpdateForwarding(target, true, validPhone)
		require.NoError(t, err)
		assert.False(t, rejected)
		assert.True(t, n.IsForwarded)
		require.NotNil(t, n.ForwardedNumber)
		assert.Equal(t, target, *n.ForwardedNumber)
	})

	t.Run("ValidButDisabled", func(t *testing.T) {
		n := newNumber(t)
		_, _ = n.UpdateForwarding(target, true, validPhone)
		rejected, err := n.UpdateForwarding(target, false, validPhone)
		require.NoError(t, err)
		assert.False(t, rejected)
		assert.False(t, n.IsForwarded)
		assert.Nil(t, n.ForwardedNumber)
	})

	t.Run("InvalidTargetDisables", func(t *testing.T) {
		n := newNumber(t)
		_, _ = n.UpdateForwarding(target, true, validPhone)
		rejected, err := n.UpdateForwarding("not-a-number", true, validPhone)
		require.NoError(t, err)
		assert.True(t, rejected)
		assert.False(t, n.IsForwarded)
		assert.Nil(t, n.ForwardedNumber)
	})

	t.Run("Deleted", func(t *testing.T) {
		n := newNumber(t)
		n.MarkDeleted()
		_, err := n.UpdateForwarding(target, true, validPhone)
		assert.ErrorIs(t, err, ErrNumberDeleted)
	})
}

func TestPhoneNumber_Voicemail(t *testing.T) {
	n := newNumber(t)
	assert.ErrorIs(t, n.EnableVoicemail(""), ErrInvalidArgument)
	assert.False(t, n.IsVoiceMailEnabled)
	assert.Nil(t, n.VoicemailStorageKey)

	require.NoError(t, n.EnableVoicemail("greetings/abc.mp3"))
	assert.True(t, n.IsVoiceMailEnabled)
	require.NotNil(t, n.VoicemailStorageKey)
	assert.Equal(t, "greetings/abc.mp3", *n.VoicemailStorageKey)

	n.DisableVoicemail()
	assert.False(t, n.IsVoiceMailEnabled)
	assert.Nil(t, n.VoicemailStorageKey)
}

func TestPhoneNumber_RestoreAssociation(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name                 string
		kind                 AssociationKind
		owner, room, support *uuid.UUID
		wantErr              error
	}{
		{"None", AssociationNone, nil, nil, nil, nil},
		{"User", AssociationUser, &id, nil, nil, nil},
		{"Room", AssociationConference, nil, &id, nil, nil},
		{"Support", AssociationSupport, nil, nil, &id, nil},
		{"NoneWithRef", AssociationNone, &id, nil, nil, ErrInconsistentAssociation},
		{"UserMissingRef", AssociationUser, nil, nil, nil, ErrInconsistentAssociation},
		{"UserWrongColumn", AssociationUser, nil, &id, nil, ErrInconsistentAssociation},
		{"TwoRefs", AssociationSupport, &id, nil, &id, ErrInconsistentAssociation},
		{"UnknownKind", AssociationKind("OTHER"), nil, nil, nil, ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &PhoneNumber{}
			err := n.RestoreAssociation(tt.kind, tt.owner, tt.room, tt.support)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, n.CurrentAssociationKind())
			kind, owner, room, support := n.AssociationColumns()
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.owner, owner)
			assert.Equal(t, tt.room, room)
			assert.Equal(t, tt.support, support)
		})
	}
}

func TestPhoneNumber_AtMostOneAssociationAcrossSequence(t *testing.T) {
	n := newNumber(t)
	steps := []func(){
		func() { _ = n.AssignToUser(uuid.New()) },
		func() { _ = n.MarkRedirected(uuid.New()) },
		func() { _ = n.AssociateRoom(uuid.New()) },
		func() { n.Unassign() },
		func() { _ = n.AssociateRoom(uuid.New()) },
		func() { _ = n.AssignToUser(uuid.New()) },
		func() { n.ReleaseRoom() },
		func() { _ = n.MarkRedirected(uuid.New()) },
		func() { _ = n.AssignToUser(uuid.New()) },
		func() { n.ReleaseSupport() },
		func() { _ = n.AssignToUser(uuid.New()) },
		func() { n.MarkDeleted() },
	}
	for _, step := range steps {
		step()
		atMostOneAssociation(t, n)
	}
	assert.Equal(t, AssociationNone, n.CurrentAssociationKind())
}
