package testhelpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// MockTokenServer is a configurable stand-in for the upstream OAuth token
// endpoint. Statuses are consumed in order per request; once exhausted, the
// last entry repeats. A 200 response carries AccessToken.
type MockTokenServer struct {
	Server       *httptest.Server
	AccessToken  string
	Statuses     []int
	RequestCount int
}

// SetupMockTokenServer creates a token endpoint that returns a valid refresh
// response by default.
func SetupMockTokenServer(t *testing.T) *MockTokenServer {
	t.Helper()

	mock := &MockTokenServer{
		AccessToken: "test-access-token",
		Statuses:    []int{http.StatusOK},
	}

	mock.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.RequestCount++

		status := mock.Statuses[len(mock.Statuses)-1]
		if mock.RequestCount <= len(mock.Statuses) {
			status = mock.Statuses[mock.RequestCount-1]
		}

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}

		WriteJSON(w, map[string]any{
			"access_token": mock.AccessToken,
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))

	t.Cleanup(mock.Server.Close)
	return mock
}

// MockAPIServer serves canned responses for upstream data endpoints, keyed by
// request path. Paths without a registered response return 404. Request
// counts are tracked per path.
type MockAPIServer struct {
	Server       *httptest.Server
	RequestCount map[string]int

	responses map[string]apiResponse
}

type apiResponse struct {
	status int
	body   string
}

func SetupMockAPIServer(t *testing.T) *MockAPIServer {
	t.Helper()

	mock := &MockAPIServer{
		RequestCount: map[string]int{},
		responses:    map[string]apiResponse{},
	}

	mock.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.RequestCount[r.URL.Path]++

		resp, ok := mock.responses[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		w.WriteHeader(resp.status)
		if resp.body != "" {
			w.Write([]byte(resp.body))
		}
	}))

	t.Cleanup(mock.Server.Close)
	return mock
}

// Respond registers a JSON body for a path.
func (m *MockAPIServer) Respond(path string, status int, body string) {
	m.responses[path] = apiResponse{status: status, body: body}
}

// WriteJSON marshals v to the response writer with a JSON content type.
func WriteJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
