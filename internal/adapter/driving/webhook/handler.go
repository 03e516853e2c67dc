// Package webhook is the driving adapter that runs the pipeline when GitHub
// delivers an issue, pull request or discussion event.
package webhook

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"time"

	gh "github.com/google/go-github/v82/github"

	"github.com/ericfisherdev/discusswatch/internal/application"
)

// maxPayloadBytes matches the largest payload GitHub will deliver.
const maxPayloadBytes = 25 << 20

// ErrMalformedPayload is returned when a delivery body cannot be decoded into
// the event type named by its X-GitHub-Event header.
var ErrMalformedPayload = errors.New("malformed webhook payload")

// acceptedEvents lists the event types that start a pipeline run.
var acceptedEvents = map[string]bool{
	"issues":             true,
	"pull_request":       true,
	"discussion":         true,
	"discussion_comment": true,
}

// Handler receives GitHub webhook deliveries.
type Handler struct {
	trigger      application.Trigger
	secret       []byte
	defaultOwner string
	logger       *slog.Logger
}

// NewHandler creates a Handler. An empty secret disables signature checks.
func NewHandler(trigger application.Trigger, secret, defaultOwner string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	var key []byte
	if secret != "" {
		key = []byte(secret)
	}
	return &Handler{
		trigger:      trigger,
		secret:       key,
		defaultOwner: defaultOwner,
		logger:       logger,
	}
}

// NewServeMux registers the webhook and health routes, wrapped with logging
// and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /webhook", h.Receive)
	mux.HandleFunc("GET /healthz", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Receive validates a delivery and, for accepted events, runs the pipeline
// before responding.
func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "could not read request body")
		return
	}

	if h.secret != nil {
		if err := gh.ValidateSignature(signatureHeader(r), body, h.secret); err != nil {
			h.logger.Warn("rejected webhook delivery", "error", err)
			writeError(w, http.StatusUnauthorized, "invalid signature")
			return
		}
	}

	event := gh.WebHookType(r)
	if event == "" {
		writeError(w, http.StatusBadRequest, "missing X-GitHub-Event header")
		return
	}
	if event == "ping" {
		writeJSON(w, http.StatusOK, EventResponse{Event: event, Status: "pong"})
		return
	}
	if !acceptedEvents[event] {
		writeJSON(w, http.StatusAccepted, EventResponse{Event: event, Status: "ignored"})
		return
	}

	owner, err := h.ownerFromPayload(event, r.Header.Get("Content-Type"), body)
	if err != nil {
		h.logger.Warn("malformed webhook payload", "event", event, "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	payload := &application.TriggerPayload{Owner: owner, Source: "webhook:" + event}
	if err := h.trigger.Invoke(r.Context(), payload); err != nil {
		h.logger.Error("pipeline run failed", "event", event, "owner", owner, "error", err)
		writeError(w, http.StatusBadGateway, "pipeline run failed")
		return
	}

	writeJSON(w, http.StatusOK, EventResponse{Event: event, Status: "processed", Owner: owner})
}

// Health reports that the server is up.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// ownerFromPayload decodes the delivery and returns the login of the owner of
// the repository it refers to, or the configured owner when absent.
func (h *Handler) ownerFromPayload(event, contentType string, body []byte) (string, error) {
	payload, err := payloadBytes(contentType, body)
	if err != nil {
		return "", err
	}

	parsed, err := gh.ParseWebHook(event, payload)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	var repo *gh.Repository
	switch e := parsed.(type) {
	case *gh.IssuesEvent:
		repo = e.GetRepo()
	case *gh.PullRequestEvent:
		repo = e.GetRepo()
	case *gh.DiscussionEvent:
		repo = e.GetRepo()
	case *gh.DiscussionCommentEvent:
		repo = e.GetRepo()
	}

	if owner := repo.GetOwner().GetLogin(); owner != "" {
		return owner, nil
	}
	return h.defaultOwner, nil
}

// payloadBytes extracts the JSON document from a delivery body. GitHub sends
// either raw JSON or a form with a "payload" field.
func payloadBytes(contentType string, body []byte) ([]byte, error) {
	mediaType := "application/json"
	if contentType != "" {
		mt, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return nil, fmt.Errorf("%w: content type %q: %w", ErrMalformedPayload, contentType, err)
		}
		mediaType = mt
	}

	switch mediaType {
	case "application/json":
		return body, nil
	case "application/x-www-form-urlencoded":
		form, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
		}
		payload := form.Get("payload")
		if payload == "" {
			return nil, fmt.Errorf("%w: form has no payload field", ErrMalformedPayload)
		}
		return []byte(payload), nil
	default:
		return nil, fmt.Errorf("%w: unsupported content type %q", ErrMalformedPayload, mediaType)
	}
}

func signatureHeader(r *http.Request) string {
	if sig := r.Header.Get(gh.SHA256SignatureHeader); sig != "" {
		return sig
	}
	return r.Header.Get(gh.SHA1SignatureHeader)
}
