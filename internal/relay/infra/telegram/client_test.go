package telegram_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/izzddalfk/tgrelay/internal/relay/core"
	"github.com/izzddalfk/tgrelay/internal/relay/infra/telegram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Method      string
	Path        string
	ContentType string
	Body        []byte
}

func setupFakeProvider(t *testing.T, status int, response string) (*httptest.Server, *capturedRequest, *int32) {
	t.Helper()

	captured := &capturedRequest{}
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		body, _ := io.ReadAll(r.Body)

		captured.Method = r.Method
		captured.Path = r.URL.Path
		captured.ContentType = r.Header.Get("Content-Type")
		captured.Body = body

		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)

	return server, captured, &calls
}

func createTestNotification() core.OutboundNotification {
	return core.OutboundNotification{
		ChatID: json.RawMessage(`"123"`),
		Text:   json.RawMessage(`"hi"`),
	}
}

func TestNewClient_EmptyBaseURL(t *testing.T) {
	client, err := telegram.NewClient(telegram.ClientConfig{})
	assert.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "invalid client configuration")
}

func TestClient_SendMessage_Success(t *testing.T) {
	server, captured, calls := setupFakeProvider(t, http.StatusOK, `{"ok":true,"result":{"message_id":1}}`)

	client, err := telegram.NewClient(telegram.ClientConfig{BaseURL: server.URL + "/"})
	require.NoError(t, err)

	receipt, err := client.SendMessage(context.Background(), "T", createTestNotification())
	require.NoError(t, err)
	require.NotNil(t, receipt)

	assert.Equal(t, http.StatusOK, receipt.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	assert.Equal(t, http.MethodPost, captured.Method)
	assert.Equal(t, "/botT/sendMessage", captured.Path)
	assert.Equal(t, "application/json", captured.ContentType)
	assert.JSONEq(t, `{"chat_id":"123","text":"hi"}`, string(captured.Body))
}

func TestClient_SendMessage_ForwardsValuesVerbatim(t *testing.T) {
	server, captured, _ := setupFakeProvider(t, http.StatusOK, `{"ok":true}`)

	client, err := telegram.NewClient(telegram.ClientConfig{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.SendMessage(context.Background(), "123:ABC", core.OutboundNotification{
		ChatID: json.RawMessage(`-1001234567890`),
		Text:   json.RawMessage(`"multi\nline message with *markdown* chars"`),
	})
	require.NoError(t, err)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(captured.Body, &sent))
	assert.Equal(t, json.Number("-1001234567890"), decodeNumber(t, captured.Body))
	assert.Equal(t, "multi\nline message with *markdown* chars", sent["text"])
	assert.Equal(t, "/bot123:ABC/sendMessage", captured.Path)
}

func TestClient_SendMessage_NonSuccessStatus(t *testing.T) {
	providerBody := `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`
	server, _, calls := setupFakeProvider(t, http.StatusBadRequest, providerBody)

	client, err := telegram.NewClient(telegram.ClientConfig{BaseURL: server.URL})
	require.NoError(t, err)

	receipt, err := client.SendMessage(context.Background(), "T", createTestNotification())
	assert.Nil(t, receipt)
	require.Error(t, err)

	var upstreamErr *core.UpstreamError
	require.True(t, errors.As(err, &upstreamErr))
	assert.Equal(t, http.StatusBadRequest, upstreamErr.StatusCode)
	assert.Equal(t, providerBody, upstreamErr.Body)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls), "failed calls are never retried")
}

func TestClient_SendMessage_TransportErrorRedactsToken(t *testing.T) {
	server, _, _ := setupFakeProvider(t, http.StatusOK, `{"ok":true}`)
	baseURL := server.URL
	server.Close()

	client, err := telegram.NewClient(telegram.ClientConfig{BaseURL: baseURL})
	require.NoError(t, err)

	_, err = client.SendMessage(context.Background(), "secret-bot-token", createTestNotification())
	require.Error(t, err)

	var upstreamErr *core.UpstreamError
	assert.False(t, errors.As(err, &upstreamErr))
	assert.Contains(t, err.Error(), "failed to send request")
	assert.NotContains(t, err.Error(), "secret-bot-token")
}

func TestClient_SendMessage_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	client, err := telegram.NewClient(telegram.ClientConfig{
		BaseURL: server.URL,
		Timeout: 20 * time.Millisecond,
	})
	require.NoError(t, err)

	_, err = client.SendMessage(context.Background(), "T", createTestNotification())
	assert.Error(t, err)
}

func TestClient_SendMessage_CanceledContext(t *testing.T) {
	server, _, _ := setupFakeProvider(t, http.StatusOK, `{"ok":true}`)

	client, err := telegram.NewClient(telegram.ClientConfig{BaseURL: server.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = client.SendMessage(ctx, "T", createTestNotification())
	assert.Error(t, err)
}

func decodeNumber(t *testing.T, body []byte) json.Number {
	t.Helper()

	var sent struct {
		ChatID json.Number `json:"chat_id"`
	}
	require.NoError(t, json.Unmarshal(body, &sent))
	return sent.ChatID
}
