package youtube

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"titleboost/internal/core/domain"
)

func TestSearchChannels_BuildsQueryAndKeepsOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "channel", q.Get("type"))
		assert.Equal(t, "example", q.Get("q"))
		assert.Equal(t, "k", q.Get("key"))
		_, _ = w.Write([]byte(`{"items":[
			{"snippet":{"channelId":"UC1","channelTitle":"First"}},
			{"id":{"channelId":"UC2"},"snippet":{"channelTitle":"Second"}}
		]}`))
	}))
	defer srv.Close()

	matches, err := NewClient("k", srv.URL).SearchChannels(context.Background(), "example")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "UC1", matches[0].ChannelID)
	assert.Equal(t, "First", matches[0].ChannelTitle)
	assert.Equal(t, "UC2", matches[1].ChannelID)
}

func TestListRecent_MapsSnippetsAndToleratesMissingThumbnail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "UC1", q.Get("channelId"))
		assert.Equal(t, "5", q.Get("maxResults"))
		assert.Equal(t, "date", q.Get("order"))
		assert.Equal(t, "video", q.Get("type"))
		_, _ = w.Write([]byte(`{"items":[
			{"id":{"videoId":"v2"},"snippet":{"title":"Two","publishedAt":"2024-02-01T00:00:00Z","thumbnails":{"default":{"url":"https://i.ytimg.com/v2.jpg"}}}},
			{"id":{"videoId":"v1"},"snippet":{"title":"One","publishedAt":"2024-01-01T00:00:00Z"}}
		]}`))
	}))
	defer srv.Close()

	entries, err := NewClient("k", srv.URL).ListRecent(context.Background(), "UC1", 5)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "v2", entries[0].VideoID)
	assert.Equal(t, "https://i.ytimg.com/v2.jpg", entries[0].Thumbnail)
	assert.Equal(t, "", entries[1].Thumbnail)
}

func TestSearch_MissingKeyIsConfigurationError(t *testing.T) {
	_, err := NewClient("", "http://unused.invalid").SearchChannels(context.Background(), "x")

	var cfgErr *domain.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.True(t, errors.Is(err, domain.ErrMissingCredential))
	assert.Equal(t, "Missing YOUTUBE_API_KEY in environment variables", err.Error())
}

func TestSearch_APIErrorIsCollaboratorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"quota exceeded"}}`))
	}))
	defer srv.Close()

	_, err := NewClient("k", srv.URL).ListRecent(context.Background(), "UC1", 5)

	var collabErr *domain.CollaboratorError
	require.True(t, errors.As(err, &collabErr))
	assert.Equal(t, "quota exceeded", collabErr.Message)
}

func TestSearch_EmptyItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	matches, err := NewClient("k", srv.URL).SearchChannels(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, matches)
}
