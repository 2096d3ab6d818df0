package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
)

func TestInstrumentHandler_LabelsByRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(InstrumentHandler)
	r.HandleFunc("/api/chats/{chatId}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chats/chat_123", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	MatchCreated()
	MessageSent(true)
	PushSent(2)
	PushFailed(0)
	PaymentUpdated("succeeded")

	rec = httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()

	assert.Contains(t, body, `amora_http_requests_total{method="GET",path="/api/chats/{chatId}",status="202"} 1`)
	assert.NotContains(t, body, "chat_123")
	assert.Contains(t, body, "amora_discovery_matches_created_total 1")
	assert.Contains(t, body, `amora_chat_messages_total{sender="ai"} 1`)
	assert.Contains(t, body, `amora_push_deliveries_total{outcome="sent"} 2`)
	assert.NotContains(t, body, `outcome="failed"`)
	assert.Contains(t, body, `amora_billing_payment_updates_total{status="succeeded"} 1`)
}
