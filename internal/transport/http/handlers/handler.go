// Package handlers wires HTTP delivery of slash commands.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/glebk/whoshere-bot/internal/domain"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// Dispatcher answers one verified or unverified command
type Dispatcher interface {
	Handle(ctx context.Context, cmd domain.Command) (*domain.Reply, error)
}

// Handler serves Slack slash commands
type Handler struct {
	log           *zap.SugaredLogger
	dispatcher    Dispatcher
	signingSecret string
}

// NewHandler constructs a Handler. An empty signingSecret disables request signature checks.
func NewHandler(log *zap.SugaredLogger, dispatcher Dispatcher, signingSecret string) *Handler {
	return &Handler{
		log:           log.Named("slack"),
		dispatcher:    dispatcher,
		signingSecret: signingSecret,
	}
}

// SlashCommand handles POST /slack/commands
func (h *Handler) SlashCommand(w http.ResponseWriter, r *http.Request) {
	cmd, ok := h.parse(w, r)
	if !ok {
		return
	}

	reply, err := h.dispatcher.Handle(r.Context(), domain.Command{
		Name:     cmd.Command,
		Text:     cmd.Text,
		Token:    cmd.Token,
		UserID:   cmd.UserID,
		UserName: cmd.UserName,
	})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if reply == nil {
		// dropped: an empty 200 makes Slack show nothing
		w.WriteHeader(http.StatusOK)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(toSlackMsg(reply)); err != nil {
		h.log.Errorw("failed to write reply", "error", err)
	}
}

// parse reads the slash command form, checking the request signature when a secret is configured
func (h *Handler) parse(w http.ResponseWriter, r *http.Request) (slack.SlashCommand, bool) {
	if h.signingSecret == "" {
		cmd, err := slack.SlashCommandParse(r)
		if err != nil {
			h.log.Warnw("failed to parse slash command", "error", err)
			w.WriteHeader(http.StatusBadRequest)
			return slack.SlashCommand{}, false
		}
		return cmd, true
	}

	verifier, err := slack.NewSecretsVerifier(r.Header, h.signingSecret)
	if err != nil {
		h.log.Warnw("rejecting unsigned request", "error", err)
		w.WriteHeader(http.StatusUnauthorized)
		return slack.SlashCommand{}, false
	}

	r.Body = io.NopCloser(io.TeeReader(r.Body, &verifier))
	cmd, err := slack.SlashCommandParse(r)
	if err != nil {
		h.log.Warnw("failed to parse slash command", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return slack.SlashCommand{}, false
	}

	if err := verifier.Ensure(); err != nil {
		h.log.Warnw("rejecting request with bad signature", "error", err)
		w.WriteHeader(http.StatusUnauthorized)
		return slack.SlashCommand{}, false
	}

	return cmd, true
}

// Healthz handles GET /healthz
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
