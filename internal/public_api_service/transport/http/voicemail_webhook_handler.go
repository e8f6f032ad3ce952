package http

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	numberdomain "github.com/dialhub/golang_services/internal/number_service/domain"
)

const webhookTokenHeader = "X-Webhook-Token"

type VoicemailSaver interface {
	Save(ctx context.Context, v *numberdomain.Voicemail) error
}

// VoicemailWebhookHandler receives recording callbacks from the telephony provider.
// When secret is set, callers must present it in X-Webhook-Token.
type VoicemailWebhookHandler struct {
	voicemails VoicemailSaver
	secret     string
	logger     *slog.Logger
	validate   *validator.Validate
}

func NewVoicemailWebhookHandler(voicemails VoicemailSaver, secret string, logger *slog.Logger, validate *validator.Validate) *VoicemailWebhookHandler {
	return &VoicemailWebhookHandler{
		voicemails: voicemails,
		secret:     secret,
		logger:     logger.With("handler", "voicemail_webhook"),
		validate:   validate,
	}
}

func (h *VoicemailWebhookHandler) HandleVoicemail(w http.ResponseWriter, r *http.Request) {
	if h.secret != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get(webhookTokenHeader)), []byte(h.secret)) != 1 {
		h.logger.WarnContext(r.Context(), "Voicemail webhook rejected", "remote_addr", r.RemoteAddr)
		respondWithError(w, http.StatusUnauthorized, "Invalid webhook token")
		return
	}
	var req VoicemailWebhookRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	v := &numberdomain.Voicemail{
		ID:                req.ID,
		DateCreated:       req.DateCreated,
		MediaURL:          req.MediaURL,
		FromNumber:        req.FromNumber,
		ToNumber:          req.ToNumber,
		Duration:          req.Duration,
		Status:            req.Status,
		CallSID:           req.CallSID,
		TranscriptionSID:  req.TranscriptionSID,
		ShouldPostOnSlack: req.ShouldPostOnSlack,
		HasPostedOnSlack:  req.HasPostedOnSlack,
	}
	if err := h.voicemails.Save(r.Context(), v); err != nil {
		respondWithDomainError(w, r, h.logger, "Failed to store voicemail", err)
		return
	}
	respondWithJSON(w, http.StatusAccepted, map[string]string{"id": v.ID})
}
