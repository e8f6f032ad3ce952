package http_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	numberdomain "github.com/dialhub/golang_services/internal/number_service/domain"
	apihttp "github.com/dialhub/golang_services/internal/public_api_service/transport/http"
)

func newNumber(t *testing.T) *numberdomain.PhoneNumber {
	t.Helper()
	n, err := numberdomain.NewPhoneNumber(uuid.New(), "+14155550100", func(string) bool { return true })
	require.NoError(t, err)
	return n
}

func TestNumberHandler_GetNumber(t *testing.T) {
	t.Run("OwnerCanRead", func(t *testing.T) {
		api := setupAPITest()
		id := uuid.New()
		api.numbers.On("EnsureOwner", mock.Anything, id, employeeID).Return(nil).Once()
		api.numbers.On("GetSummary", mock.Anything, id).Return(&numberdomain.NumberSummary{
			ID: id, PhoneNumber: "+14155550100", ActiveAssociation: numberdomain.AssociationUser,
		}, nil).Once()

		rr := api.do(t, http.MethodGet, "/api/v1/numbers/"+id.String(), employeeToken, nil)

		assert.Equal(t, http.StatusOK, rr.Code)
		var summary numberdomain.NumberSummary
		decodeBody(t, rr, &summary)
		assert.Equal(t, numberdomain.AssociationUser, summary.ActiveAssociation)
	})

	t.Run("OtherEmployeesNumberIsHidden", func(t *testing.T) {
		api := setupAPITest()
		id := uuid.New()
		api.numbers.On("EnsureOwner", mock.Anything, id, employeeID).Return(numberdomain.ErrNotFound).Once()

		rr := api.do(t, http.MethodGet, "/api/v1/numbers/"+id.String(), employeeToken, nil)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		api.numbers.AssertNotCalled(t, "GetSummary", mock.Anything, mock.Anything)
	})

	t.Run("AdminSkipsOwnership", func(t *testing.T) {
		api := setupAPITest()
		id := uuid.New()
		api.numbers.On("GetSummary", mock.Anything, id).Return(&numberdomain.NumberSummary{ID: id}, nil).Once()

		rr := api.do(t, http.MethodGet, "/api/v1/numbers/"+id.String(), adminToken, nil)

		assert.Equal(t, http.StatusOK, rr.Code)
		api.numbers.AssertNotCalled(t, "EnsureOwner", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("BadID", func(t *testing.T) {
		api := setupAPITest()
		rr := api.do(t, http.MethodGet, "/api/v1/numbers/not-a-uuid", adminToken, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("ServerErrorIsHidden", func(t *testing.T) {
		api := setupAPITest()
		id := uuid.New()
		api.numbers.On("GetSummary", mock.Anything, id).Return(nil, errors.New("pq: connection reset")).Once()

		rr := api.do(t, http.MethodGet, "/api/v1/numbers/"+id.String(), adminToken, nil)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), "connection reset")
	})
}

func TestNumberHandler_ListMine(t *testing.T) {
	api := setupAPITest()
	api.numbers.On("ListOwnedSummaries", mock.Anything, employeeID).Return([]numberdomain.NumberSummary{{PhoneNumber: "+14155550100"}}, nil).Once()

	rr := api.do(t, http.MethodGet, "/api/v1/users/me/numbers", employeeToken, nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	var list []numberdomain.NumberSummary
	decodeBody(t, rr, &list)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].Actor)
}

func TestNumberHandler_DisabledUserLockedOut(t *testing.T) {
	api := setupAPITest()

	rr := api.do(t, http.MethodGet, "/api/v1/users/me/numbers", disabledToken, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = api.do(t, http.MethodPut, "/api/v1/numbers/"+uuid.NewString()+"/forwarding", disabledToken,
		apihttp.UpdateForwardingRequest{ForwardedNumber: "+14155550111", IsForwarded: true})
	assert.Equal(t, http.StatusForbidden, rr.Code)
	api.numbers.AssertNotCalled(t, "ListOwnedSummaries", mock.Anything, mock.Anything)
	api.numbers.AssertNotCalled(t, "UpdateForwarding", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestNumberHandler_AdminRoutesRejectEmployees(t *testing.T) {
	api := setupAPITest()
	id := uuid.New().String()
	cases := []struct{ method, path string }{
		{http.MethodGet, "/api/v1/numbers"},
		{http.MethodPost, "/api/v1/numbers"},
		{http.MethodDelete, "/api/v1/numbers/" + id},
		{http.MethodPost, "/api/v1/numbers/" + id + "/assign"},
		{http.MethodPost, "/api/v1/numbers/" + id + "/unassign"},
		{http.MethodPost, "/api/v1/numbers/" + id + "/redirect"},
		{http.MethodPost, "/api/v1/numbers/" + id + "/room"},
		{http.MethodPut, "/api/v1/numbers/" + id + "/voicemail"},
		{http.MethodPost, "/api/v1/usage/recompute"},
		{http.MethodGet, "/api/v1/directory"},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rr := api.do(t, tc.method, tc.path, employeeToken, nil)
			assert.Equal(t, http.StatusForbidden, rr.Code)
		})
	}
}

func TestNumberHandler_Create(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		api := setupAPITest()
		n := newNumber(t)
		api.numbers.On("CreateNumber", mock.Anything, "+14155550100", "Sales").Return(n, nil).Once()

		rr := api.do(t, http.MethodPost, "/api/v1/numbers", adminToken, apihttp.CreateNumberRequest{PhoneNumber: "+14155550100", OwnerLabel: "Sales"})

		assert.Equal(t, http.StatusCreated, rr.Code)
		var resp apihttp.PhoneNumberResponse
		decodeBody(t, rr, &resp)
		assert.Equal(t, "NONE", resp.ActiveAssociation)
		assert.Nil(t, resp.AssociatedID)
	})

	t.Run("NotE164", func(t *testing.T) {
		api := setupAPITest()
		rr := api.do(t, http.MethodPost, "/api/v1/numbers", adminToken, apihttp.CreateNumberRequest{PhoneNumber: "4155550100"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Duplicate", func(t *testing.T) {
		api := setupAPITest()
		api.numbers.On("CreateNumber", mock.Anything, "+14155550100", "").Return(nil, numberdomain.ErrDuplicateEntry).Once()

		rr := api.do(t, http.MethodPost, "/api/v1/numbers", adminToken, apihttp.CreateNumberRequest{PhoneNumber: "+14155550100"})
		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestNumberHandler_Associations(t *testing.T) {
	t.Run("AssignPassesCallerAsActor", func(t *testing.T) {
		api := setupAPITest()
		n := newNumber(t)
		userID := uuid.New()
		require.NoError(t, n.AssignToUser(userID))
		api.numbers.On("AssignToUser", mock.Anything, n.ID, userID, "admin@example.com").Return(n, nil).Once()

		rr := api.do(t, http.MethodPost, "/api/v1/numbers/"+n.ID.String()+"/assign", adminToken, apihttp.AssignNumberRequest{UserID: userID})

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp apihttp.PhoneNumberResponse
		decodeBody(t, rr, &resp)
		assert.Equal(t, "USER", resp.ActiveAssociation)
		require.NotNil(t, resp.AssociatedID)
		assert.Equal(t, userID, *resp.AssociatedID)
	})

	t.Run("AssignMissingUser", func(t *testing.T) {
		api := setupAPITest()
		rr := api.do(t, http.MethodPost, "/api/v1/numbers/"+uuid.NewString()+"/assign", adminToken, map[string]string{})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("AssignToDisabledUser", func(t *testing.T) {
		api := setupAPITest()
		id, userID := uuid.New(), uuid.New()
		api.numbers.On("AssignToUser", mock.Anything, id, userID, "admin@example.com").Return(nil, numberdomain.ErrUserDisabled).Once()

		rr := api.do(t, http.MethodPost, "/api/v1/numbers/"+id.String()+"/assign", adminToken, apihttp.AssignNumberRequest{UserID: userID})
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("RoomConflict", func(t *testing.T) {
		api := setupAPITest()
		id, roomID := uuid.New(), uuid.New()
		api.numbers.On("AssociateRoom", mock.Anything, id, roomID).Return(nil, numberdomain.ErrNotAssignable).Once()

		rr := api.do(t, http.MethodPost, "/api/v1/numbers/"+id.String()+"/room", adminToken, apihttp.AssociateRoomRequest{RoomID: roomID})
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("ReleaseRoom", func(t *testing.T) {
		api := setupAPITest()
		n := newNumber(t)
		api.numbers.On("ReleaseRoom", mock.Anything, n.ID).Return(n, nil).Once()

		rr := api.do(t, http.MethodDelete, "/api/v1/numbers/"+n.ID.String()+"/room", adminToken, nil)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("RedirectUnknownSupportLine", func(t *testing.T) {
		api := setupAPITest()
		id, lineID := uuid.New(), uuid.New()
		api.numbers.On("MarkRedirected", mock.Anything, id, lineID).Return(nil, numberdomain.ErrNotFound).Once()

		rr := api.do(t, http.MethodPost, "/api/v1/numbers/"+id.String()+"/redirect", adminToken, apihttp.RedirectNumberRequest{SupportLineID: lineID})
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("Delete", func(t *testing.T) {
		api := setupAPITest()
		id := uuid.New()
		api.numbers.On("Delete", mock.Anything, id).Return(nil).Once()

		rr := api.do(t, http.MethodDelete, "/api/v1/numbers/"+id.String(), adminToken, nil)
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})
}

func TestNumberHandler_ForwardingAndVoicemail(t *testing.T) {
	t.Run("OwnerUpdatesForwarding", func(t *testing.T) {
		api := setupAPITest()
		n := newNumber(t)
		api.numbers.On("EnsureOwner", mock.Anything, n.ID, employeeID).Return(nil).Once()
		api.numbers.On("UpdateForwarding", mock.Anything, n.ID, "+14155550199", true).Return(n, nil).Once()

		rr := api.do(t, http.MethodPut, "/api/v1/numbers/"+n.ID.String()+"/forwarding", employeeToken,
			apihttp.UpdateForwardingRequest{ForwardedNumber: "+14155550199", IsForwarded: true})

		assert.Equal(t, http.StatusOK, rr.Code)
		api.numbers.AssertExpectations(t)
	})

	t.Run("EnableVoicemailNeedsKey", func(t *testing.T) {
		api := setupAPITest()
		rr := api.do(t, http.MethodPut, "/api/v1/numbers/"+uuid.NewString()+"/voicemail", adminToken, apihttp.SetVoicemailRequest{Enabled: true})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("DisableVoicemail", func(t *testing.T) {
		api := setupAPITest()
		n := newNumber(t)
		api.numbers.On("SetVoicemail", mock.Anything, n.ID, false, "").Return(n, nil).Once()

		rr := api.do(t, http.MethodPut, "/api/v1/numbers/"+n.ID.String()+"/voicemail", adminToken, apihttp.SetVoicemailRequest{Enabled: false})
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("ListVoicemailsPaged", func(t *testing.T) {
		api := setupAPITest()
		id := uuid.New()
		api.numbers.On("EnsureOwner", mock.Anything, id, employeeID).Return(nil).Once()
		api.voicemails.On("ListForNumber", mock.Anything, id, 10, 100).Return([]numberdomain.VoicemailView{{ID: "RE1"}}, nil).Once()

		rr := api.do(t, http.MethodGet, "/api/v1/numbers/"+id.String()+"/voicemails?offset=10&limit=500", employeeToken, nil)

		assert.Equal(t, http.StatusOK, rr.Code)
		api.voicemails.AssertExpectations(t)
	})
}

func TestNumberHandler_RecomputeUsage(t *testing.T) {
	api := setupAPITest()
	api.usage.On("RecomputeAll", mock.Anything, mock.AnythingOfType("time.Time")).Return(12, 3, nil).Once()

	rr := api.do(t, http.MethodPost, "/api/v1/usage/recompute", adminToken, nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp apihttp.RecomputeUsageResponse
	decodeBody(t, rr, &resp)
	assert.Equal(t, 12, resp.Visited)
	assert.Equal(t, 3, resp.Changed)
}
