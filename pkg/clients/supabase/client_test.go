package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/assetdesk/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.SupabaseConfig{URL: srv.URL + "/", AnonKey: "anon-key"})
}

func TestSignInWithPassword(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "it@company.com", body["email"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","refresh_token":"rt","expires_in":3600,"user":{"id":"u1","email":"it@company.com"}}`))
	})

	tokens, err := client.SignInWithPassword(context.Background(), "it@company.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "at", tokens.AccessToken)
	assert.Equal(t, "rt", tokens.RefreshToken)
	assert.Equal(t, "u1", tokens.User.ID)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(time.Hour), tokens.Expiry(now))
}

func TestSignInRejectedCredentials(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
	})

	_, err := client.SignInWithPassword(context.Background(), "it@company.com", "wrong-password")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Invalid login credentials", apiErr.Text())
	assert.False(t, IsUnauthorized(err))
}

func TestGetUserUnauthorized(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer expired", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":401,"msg":"invalid JWT"}`))
	})

	_, err := client.GetUser(context.Background(), "expired")
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
}

func TestQueryExecuteSendsFiltersAndCount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/rest/v1/assets", r.URL.Path)
		assert.Equal(t, "id,asset_code", q.Get("select"))
		assert.Equal(t, "eq.under_repair", q.Get("status"))
		assert.Equal(t, "ilike.%dev%", q.Get("asset_code"))
		assert.Equal(t, "asset_code.desc,id.asc", q.Get("order"))
		assert.Equal(t, "10", q.Get("offset"))
		assert.Equal(t, "10", q.Get("limit"))
		assert.Equal(t, "count=exact", r.Header.Get("Prefer"))
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Range", "10-10/11")
		_, _ = w.Write([]byte(`[{"id":"a1","asset_code":"DEV-2024-0001"}]`))
	})

	var rows []struct {
		ID   string `json:"id"`
		Code string `json:"asset_code"`
	}
	ctx := ContextWithAccessToken(context.Background(), "user-token")
	total, err := client.From("assets").
		Select("id,\n\t asset_code").
		Eq("status", "under_repair").
		ILike("asset_code", "%dev%").
		Order("asset_code", false).
		Order("id", true).
		Range(10, 19).
		CountExact().
		Execute(ctx, &rows)
	require.NoError(t, err)
	assert.EqualValues(t, 11, total)
	require.Len(t, rows, 1)
	assert.Equal(t, "DEV-2024-0001", rows[0].Code)
}

func TestQueryExecuteRangeBeyondEnd(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Range", "*/5")
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		_, _ = w.Write([]byte(`{"code":"PGRST103","message":"Requested range not satisfiable"}`))
	})

	var rows []map[string]any
	total, err := client.From("assets").Range(10, 19).CountExact().Execute(context.Background(), &rows)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Empty(t, rows)
}

func TestQueryExecuteFallsBackToAnonBearer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	})

	var rows []map[string]any
	total, err := client.From("departments").Execute(context.Background(), &rows)
	require.NoError(t, err)
	assert.EqualValues(t, -1, total)
}

func TestQueryUpdateReturnsAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "eq.a1", r.URL.Query().Get("id"))
		assert.Equal(t, "return=minimal", r.Header.Get("Prefer"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"code":"23505","message":"duplicate key value violates unique constraint \"assets_asset_code_key\""}`))
	})

	err := client.From("assets").Eq("id", "a1").Update(context.Background(), map[string]string{"asset_code": "DEV-2024-0001"}, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.EqualValues(t, "23505", apiErr.Code)
	assert.Contains(t, apiErr.Text(), "duplicate key")
}

func TestParseContentRange(t *testing.T) {
	cases := map[string]int64{"0-9/42": 42, "*/0": 0, "*/5": 5}
	for header, want := range cases {
		got, ok := parseContentRange(header)
		require.True(t, ok, header)
		assert.Equal(t, want, got, header)
	}

	_, ok := parseContentRange("0-9/*")
	assert.False(t, ok)
	_, ok = parseContentRange("")
	assert.False(t, ok)
}

func TestNewServiceClientRequiresKey(t *testing.T) {
	_, err := NewServiceClient(config.SupabaseConfig{URL: "http://localhost"})
	require.Error(t, err)
}
