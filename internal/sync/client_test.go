package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPClientPushBatch(t *testing.T) {
	var got Batch
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/sync/push", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	batch := &Batch{
		UserID: "user-1",
		Accounts: []AccountRecord{
			{LocalID: "a1", Name: "Cash", Type: "cash", Balance: 10, Icon: "wallet", UpdatedAt: "2026-03-01T00:00:00Z"},
		},
	}
	require.NoError(t, NewHTTPClient(srv.URL).PushBatch(context.Background(), batch))
	require.Equal(t, "user-1", got.UserID)
	require.Len(t, got.Accounts, 1)
	require.Equal(t, "a1", got.Accounts[0].LocalID)
}

func TestHTTPClientPushRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer srv.Close()

	err := NewHTTPClient(srv.URL).PushBatch(context.Background(), &Batch{UserID: "user-1"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "quota exceeded")
}

func TestHTTPClientPullAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/sync/pull", r.URL.Path)
		require.Equal(t, "user 1", r.URL.Query().Get("userId"))
		json.NewEncoder(w).Encode(Snapshot{
			Categories: []CategoryRecord{
				{LocalID: "c1", Name: "Food", Icon: "utensils", Type: "expense", Color: "#fff", UpdatedAt: "2026-03-01T00:00:00Z"},
			},
		})
	}))
	defer srv.Close()

	snap, err := NewHTTPClient(srv.URL).PullAll(context.Background(), "user 1")
	require.NoError(t, err)
	require.Equal(t, 1, snap.Size())
	require.Equal(t, "c1", snap.Categories[0].LocalID)
}

func TestHTTPClientDeleteUserData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sync/delete-user-data", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "user-1", body["userId"])
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, NewHTTPClient(srv.URL).DeleteUserData(context.Background(), "user-1"))
}

func TestDeletedMarkerOmittedWhenFalse(t *testing.T) {
	live, err := json.Marshal(AccountRecord{LocalID: "a1", UpdatedAt: "2026-03-01T00:00:00Z"})
	require.NoError(t, err)
	require.False(t, strings.Contains(string(live), "deleted"),
		"live records must omit the deleted marker entirely")

	dead, err := json.Marshal(AccountRecord{LocalID: "a1", Deleted: true})
	require.NoError(t, err)
	require.Contains(t, string(dead), `"deleted":true`)
}
