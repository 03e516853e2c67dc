package webhook_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/discusswatch/internal/adapter/driving/webhook"
	"github.com/ericfisherdev/discusswatch/internal/application"
)

// --- Mock implementations ---

type mockTrigger struct {
	payloads []application.TriggerPayload
	err      error
}

func (m *mockTrigger) Invoke(_ context.Context, p *application.TriggerPayload) error {
	m.payloads = append(m.payloads, *p)
	return m.err
}

// --- Helpers ---

const testSecret = "s3cret"

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func newServer(t *testing.T, trigger *mockTrigger, secret string) *httptest.Server {
	t.Helper()
	h := webhook.NewHandler(trigger, secret, "fallback-owner", nil)
	server := httptest.NewServer(webhook.NewServeMux(h, nil))
	t.Cleanup(server.Close)
	return server
}

func deliver(t *testing.T, server *httptest.Server, event string, body []byte, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, server.URL+"/webhook", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if event != "" {
		req.Header.Set("X-GitHub-Event", event)
	}
	req.Header.Set("X-GitHub-Delivery", "72d3162e-cc78-11e3-81ab-4c9367dc0958")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func discussionPayload(owner string) []byte {
	payload := map[string]any{
		"action": "created",
		"discussion": map[string]any{
			"title": "Help needed",
		},
		"repository": map[string]any{
			"name":  "repo-a",
			"owner": map[string]any{"login": owner},
		},
	}
	data, _ := json.Marshal(payload)
	return data
}

// --- Tests ---

func TestReceive_AcceptedEventsRunPipeline(t *testing.T) {
	for _, event := range []string{"issues", "pull_request", "discussion", "discussion_comment"} {
		t.Run(event, func(t *testing.T) {
			trigger := &mockTrigger{}
			server := newServer(t, trigger, "")

			resp, body := deliver(t, server, event, discussionPayload("octocat"), nil)

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "processed", body["status"])
			require.Len(t, trigger.payloads, 1)
			assert.Equal(t, "octocat", trigger.payloads[0].Owner)
			assert.Equal(t, "webhook:"+event, trigger.payloads[0].Source)
		})
	}
}

func TestReceive_MissingOwnerFallsBack(t *testing.T) {
	trigger := &mockTrigger{}
	server := newServer(t, trigger, "")

	resp, _ := deliver(t, server, "issues", []byte(`{"action":"opened"}`), nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, trigger.payloads, 1)
	assert.Equal(t, "fallback-owner", trigger.payloads[0].Owner)
}

func TestReceive_Ping(t *testing.T) {
	trigger := &mockTrigger{}
	server := newServer(t, trigger, "")

	resp, body := deliver(t, server, "ping", []byte(`{"zen":"Keep it logically awesome."}`), nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pong", body["status"])
	assert.Empty(t, trigger.payloads)
}

func TestReceive_OtherEventsIgnored(t *testing.T) {
	trigger := &mockTrigger{}
	server := newServer(t, trigger, "")

	resp, body := deliver(t, server, "push", []byte(`{}`), nil)

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "ignored", body["status"])
	assert.Empty(t, trigger.payloads)
}

func TestReceive_MissingEventHeader(t *testing.T) {
	server := newServer(t, &mockTrigger{}, "")

	resp, _ := deliver(t, server, "", []byte(`{}`), nil)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReceive_MalformedPayload(t *testing.T) {
	trigger := &mockTrigger{}
	server := newServer(t, trigger, "")

	resp, body := deliver(t, server, "discussion", []byte(`{"repository": "not-an-object"`), nil)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "malformed webhook payload")
	assert.Empty(t, trigger.payloads)
}

func TestReceive_UnsupportedContentType(t *testing.T) {
	server := newServer(t, &mockTrigger{}, "")

	resp, _ := deliver(t, server, "issues", []byte(`<xml/>`), map[string]string{"Content-Type": "text/xml"})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReceive_FormEncodedPayload(t *testing.T) {
	trigger := &mockTrigger{}
	server := newServer(t, trigger, "")

	form := url.Values{"payload": {string(discussionPayload("acme"))}}
	resp, _ := deliver(t, server, "discussion", []byte(form.Encode()),
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, trigger.payloads, 1)
	assert.Equal(t, "acme", trigger.payloads[0].Owner)
}

func TestReceive_SignatureRequiredWhenSecretSet(t *testing.T) {
	trigger := &mockTrigger{}
	server := newServer(t, trigger, testSecret)
	payload := discussionPayload("octocat")

	resp, _ := deliver(t, server, "discussion", payload, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = deliver(t, server, "discussion", payload, map[string]string{"X-Hub-Signature-256": "sha256=deadbeef"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, trigger.payloads)

	resp, _ = deliver(t, server, "discussion", payload, map[string]string{"X-Hub-Signature-256": sign(payload)})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, trigger.payloads, 1)
}

func TestReceive_PipelineFailure(t *testing.T) {
	trigger := &mockTrigger{err: errors.New("github unavailable")}
	server := newServer(t, trigger, "")

	resp, body := deliver(t, server, "issues", discussionPayload("octocat"), nil)

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "pipeline run failed", body["error"])
}

func TestReceive_GetNotAllowed(t *testing.T) {
	server := newServer(t, &mockTrigger{}, "")

	resp, err := http.Get(server.URL + "/webhook")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	server := newServer(t, &mockTrigger{}, "")

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body webhook.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body.Status)
	assert.NotEmpty(t, body.Time)
}
