package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"reciprodb/pkg/api"
	"reciprodb/pkg/store"
)

const minute = int64(60_000)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	srv := httptest.NewServer(api.NewRouter())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, srv *httptest.Server, method, path string, body interface{}, wantStatus int) envelope {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: status %d, want %d", method, path, resp.StatusCode, wantStatus)
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		resp, err := srv.Client().Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s: status %d", path, resp.StatusCode)
		}
	}
}

func TestAttentionSwitchFlow(t *testing.T) {
	srv := newTestServer(t)

	env := doJSON(t, srv, http.MethodPost, "/v1/attention/switch",
		map[string]interface{}{"user_id": "maya", "intention_id": "in_garden", "ts": 1000},
		http.StatusCreated)
	var sw struct {
		BlessingID     string `json:"blessing_id"`
		AttentionIndex int    `json:"attention_index"`
	}
	if err := json.Unmarshal(env.Data, &sw); err != nil {
		t.Fatalf("decode switch result: %v", err)
	}
	if !env.Success || sw.AttentionIndex != 0 || sw.BlessingID == "" {
		t.Fatalf("unexpected switch result: %+v", sw)
	}

	doJSON(t, srv, http.MethodPost, "/v1/attention/switch",
		map[string]interface{}{"user_id": "maya", "intention_id": "in_rest", "ts": 1000 + 30*minute},
		http.StatusCreated)

	env = doJSON(t, srv, http.MethodGet, "/v1/users/maya/events", nil, http.StatusOK)
	var events []json.RawMessage
	if err := json.Unmarshal(env.Data, &events); err != nil {
		t.Fatalf("decode events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}

	env = doJSON(t, srv, http.MethodGet, "/v1/users/maya/events/0/duration?now=0", nil, http.StatusOK)
	var dur struct {
		DurationMS int64  `json:"duration_ms"`
		Duration   string `json:"duration"`
	}
	if err := json.Unmarshal(env.Data, &dur); err != nil {
		t.Fatalf("decode duration: %v", err)
	}
	if dur.DurationMS != 30*minute || dur.Duration != "30 minutes" {
		t.Fatalf("duration = %+v", dur)
	}

	// missing user still returns the error envelope
	resp := doJSON(t, srv, http.MethodGet, "/v1/users/nobody/events/5/duration", nil, http.StatusNotFound)
	if resp.Success || resp.Error == "" {
		t.Fatalf("error envelope = %+v", resp)
	}
}

func TestForgeAndGiftFlow(t *testing.T) {
	srv := newTestServer(t)

	// maya tends the garden for 30 minutes, sam proves the service
	doJSON(t, srv, http.MethodPost, "/v1/attention/switch",
		map[string]interface{}{"user_id": "maya", "intention_id": "in_garden", "ts": 1000},
		http.StatusCreated)
	doJSON(t, srv, http.MethodPost, "/v1/attention/switch",
		map[string]interface{}{"user_id": "maya", "intention_id": "in_rest", "ts": 1000 + 30*minute},
		http.StatusCreated)

	env := doJSON(t, srv, http.MethodPost, "/v1/intentions/in_garden/proofs",
		map[string]interface{}{"by": []string{"sam"}, "content": "weeded the beds", "ts": 2000},
		http.StatusCreated)
	var proof struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &proof); err != nil {
		t.Fatalf("decode proof: %v", err)
	}

	env = doJSON(t, srv, http.MethodPost, "/v1/tokens/forge",
		map[string]interface{}{
			"user_id": "maya", "indices": []int{0}, "intention_id": "in_garden",
			"honoring_proof": proof.ID, "message": "thank you",
		},
		http.StatusCreated)
	var tok struct {
		ID            string `json:"id"`
		Steward       string `json:"steward"`
		TotalDuration int64  `json:"total_duration"`
	}
	if err := json.Unmarshal(env.Data, &tok); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	if tok.Steward != "maya" || tok.TotalDuration != 30*minute {
		t.Fatalf("token = %+v", tok)
	}

	// gifting to someone not on the proof is a conflict
	errEnv := doJSON(t, srv, http.MethodPost, "/v1/tokens/"+tok.ID+"/gift",
		map[string]interface{}{"service_provider_id": "mallory"}, http.StatusConflict)
	if errEnv.Error != "Token must be gifted to the service provider" {
		t.Fatalf("gift error = %q", errEnv.Error)
	}

	env = doJSON(t, srv, http.MethodPost, "/v1/tokens/"+tok.ID+"/gift",
		map[string]interface{}{"service_provider_id": "sam"}, http.StatusOK)
	var gifted struct {
		Steward string `json:"steward"`
	}
	if err := json.Unmarshal(env.Data, &gifted); err != nil {
		t.Fatalf("decode gifted token: %v", err)
	}
	if gifted.Steward != "sam" {
		t.Fatalf("steward = %q", gifted.Steward)
	}

	env = doJSON(t, srv, http.MethodGet, "/v1/tokens/"+tok.ID+"/tree", nil, http.StatusOK)
	var tree struct {
		Nodes      []string `json:"nodes"`
		DurationMS int64    `json:"duration_ms"`
	}
	if err := json.Unmarshal(env.Data, &tree); err != nil {
		t.Fatalf("decode tree: %v", err)
	}
	if len(tree.Nodes) != 1 || tree.Nodes[0] != tok.ID || tree.DurationMS != 30*minute {
		t.Fatalf("tree = %+v", tree)
	}

	errEnv = doJSON(t, srv, http.MethodGet, "/v1/tokens/tk_ghost", nil, http.StatusNotFound)
	if errEnv.Error != "Token tk_ghost not found" {
		t.Fatalf("missing token error = %q", errEnv.Error)
	}
}

func TestOfferingFlow(t *testing.T) {
	srv := newTestServer(t)

	env := doJSON(t, srv, http.MethodPost, "/v1/offerings",
		map[string]interface{}{"host_id": "host", "title": "bread workshop", "slots": 1},
		http.StatusCreated)
	var off struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &off); err != nil {
		t.Fatalf("decode offering: %v", err)
	}

	env = doJSON(t, srv, http.MethodPost, "/v1/offerings/"+off.ID+"/bids",
		map[string]interface{}{"user_id": "ana", "top_token": "tk_a"}, http.StatusCreated)
	var bid struct {
		Position int `json:"position"`
	}
	if err := json.Unmarshal(env.Data, &bid); err != nil {
		t.Fatalf("decode bid: %v", err)
	}
	if bid.Position != 1 {
		t.Fatalf("position = %d", bid.Position)
	}

	errEnv := doJSON(t, srv, http.MethodPost, "/v1/offerings/"+off.ID+"/bids",
		map[string]interface{}{"user_id": "ana", "top_token": "tk_a"}, http.StatusConflict)
	if errEnv.Error != "User has already bid on this offering" {
		t.Fatalf("duplicate bid error = %q", errEnv.Error)
	}

	doJSON(t, srv, http.MethodPost, "/v1/offerings/"+off.ID+"/accept",
		map[string]interface{}{"host_id": "host"}, http.StatusOK)

	errEnv = doJSON(t, srv, http.MethodPost, "/v1/offerings/"+off.ID+"/bids",
		map[string]interface{}{"user_id": "ben", "top_token": "tk_b"}, http.StatusConflict)
	if !strings.HasSuffix(errEnv.Error, "is not open") {
		t.Fatalf("closed offering error = %q", errEnv.Error)
	}
}

func TestMalformedBody(t *testing.T) {
	srv := newTestServer(t)
	resp, err := srv.Client().Post(srv.URL+"/v1/attention/switch", "application/json",
		strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}
