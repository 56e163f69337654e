package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_FetchDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "2", r.PostForm.Get("itemcount"))
		assert.Equal(t, "111", r.PostForm.Get("publishedfileids[0]"))
		assert.Equal(t, "222", r.PostForm.Get("publishedfileids[1]"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":{"result":1,"resultcount":2,"publishedfiledetails":[
			{"publishedfileid":"111","result":1,"title":"Tank Skin","description":"green tank","time_updated":1700000000},
			{"publishedfileid":"222","result":9}
		]}}`))
	}))
	defer srv.Close()

	details, err := NewClient(srv.URL, srv.Client()).FetchDetails(context.Background(), []string{"111", "222"})

	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "111", details[0].PublishedFileID)
	assert.Equal(t, "Tank Skin", details[0].Title)
	assert.Equal(t, "green tank", details[0].Description)
	assert.Equal(t, int64(1700000000), details[0].TimeUpdated)
}

func TestClient_FetchDetailsErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantBad bool
	}{
		{"http error", http.StatusTooManyRequests, `{}`, false},
		{"bad result", http.StatusOK, `{"response":{"result":2,"resultcount":0}}`, true},
		{"malformed json", http.StatusOK, `{"response":`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, srv.Client()).FetchDetails(context.Background(), []string{"1"})

			require.Error(t, err)
			if tt.wantBad {
				assert.ErrorIs(t, err, ErrBadResult)
			}
		})
	}
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient("", nil)
	assert.Equal(t, DefaultEndpoint, c.endpoint)
	assert.Equal(t, http.DefaultClient, c.http)
}
