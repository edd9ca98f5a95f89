package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/config"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var tokenCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&tokenCalls, 1)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "client_credentials", body["grant_type"])
		assert.Equal(t, "id", body["client_id"])
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token_type":"Bearer","expires_in":600,"access_token":"tok"}`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		handler(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := NewClient(config.PlatformConfig{BaseURL: srv.URL + "/", ClientID: "id", ClientSecret: "secret"}, zap.NewNop())
	return client, &tokenCalls
}

func TestClientSearch(t *testing.T) {
	client, tokenCalls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/search/product-media", r.URL.Path)
		var c Criteria
		require.NoError(t, json.NewDecoder(r.Body).Decode(&c))
		require.Len(t, c.Filter, 1)
		assert.Equal(t, "productId", c.Filter[0].Field)
		_, _ = w.Write([]byte(`{"total":1,"data":[{"id":"a","position":1}]}`))
	})

	ctx := context.Background()
	res, err := client.Search(ctx, "product_media", NewCriteria().WithFilter(Equals("productId", "p")))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, "a", res.First().ID())

	_, err = client.Search(ctx, "product_media", NewCriteria().WithFilter(Equals("productId", "p")))
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(tokenCalls), "token is cached")
}

func TestClientSearchIDs(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/search-ids/tax", r.URL.Path)
		_, _ = w.Write([]byte(`{"total":2,"data":["a","b"]}`))
	})

	ids, err := client.SearchIDs(context.Background(), "tax", NewCriteria())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestClientSearchDocumentAcceptsJSONAPI(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/vnd.api+json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"data":[{"id":"o"}]}`))
	})

	doc, err := client.SearchDocument(context.Background(), "order", NewCriteria().WithIDs("o"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[{"id":"o"}]}`, string(doc))
}

func TestClientUpsertUsesSyncEndpoint(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/_action/sync", r.URL.Path)
		var ops map[string]syncOperation
		require.NoError(t, json.NewDecoder(r.Body).Decode(&ops))
		op, ok := ops["upsert-product"]
		require.True(t, ok)
		assert.Equal(t, "product", op.Entity)
		assert.Equal(t, "upsert", op.Action)
		require.Len(t, op.Payload, 1)
		assert.Equal(t, "ms-123", op.Payload[0].String("productNumber"))
		w.WriteHeader(http.StatusOK)
	})

	err := client.Upsert(context.Background(), "product", []Entity{{"id": "x", "productNumber": "ms-123"}})
	require.NoError(t, err)
}

func TestClientSkipsEmptySync(t *testing.T) {
	client, tokenCalls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Fail(t, "no request expected")
	})

	require.NoError(t, client.Delete(context.Background(), "product_category", nil))
	assert.Equal(t, int32(0), atomic.LoadInt32(tokenCalls))
}

func TestClientUploadFromURL(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/_action/media/m1/upload", r.URL.Path)
		assert.Equal(t, "jpg", r.URL.Query().Get("extension"))
		assert.Equal(t, "shirt", r.URL.Query().Get("fileName"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://cdn.example.com/shirt.jpg", body["url"])
		w.WriteHeader(http.StatusNoContent)
	})

	err := client.UploadFromURL(context.Background(), "m1", "https://cdn.example.com/shirt.jpg", "shirt", "jpg")
	require.NoError(t, err)
}

func TestClientReturnsAPIError(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"errors":[{"code":"FRAMEWORK__MISSING_PRIVILEGE"}]}`))
	})

	_, err := client.Search(context.Background(), "product", NewCriteria())
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Contains(t, apiErr.Body, "MISSING_PRIVILEGE")
}
