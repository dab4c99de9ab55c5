package apidance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finfeed/lib/payload"
	"finfeed/lib/politefetch"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(ClientOptions{
		BaseURL: baseURL,
		Fetch: politefetch.NewClient(politefetch.ClientOptions{
			Timeout: time.Second * 5,
			Policy:  politefetch.Policy{MaxAttempts: 2, Base: time.Millisecond, Multiplier: 2},
			Headers: map[string]string{"apikey": "test-key"},
		}),
	})
	require.NoError(t, err)
	return client
}

func TestUserID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/graphql/UserByScreenName", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("apikey"))

		var variables map[string]any
		require.NoError(t, json.Unmarshal([]byte(r.URL.Query().Get("variables")), &variables))
		require.Equal(t, "elonmusk", variables["screen_name"])

		w.Write([]byte(`{"data": {"user": {"result": {"rest_id": "44196397"}}}}`))
	}))
	defer srv.Close()

	id, err := newTestClient(t, srv.URL).UserID(context.Background(), "elonmusk")
	require.NoError(t, err)
	require.Equal(t, "44196397", id)
}

func TestUserIDUnknownUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"user": {}}, "msg": "user not found"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).UserID(context.Background(), "nosuchuser")
	require.Error(t, err)
	var shapeErr *payload.ShapeError
	require.ErrorAs(t, err, &shapeErr)
	require.Contains(t, err.Error(), "user not found")
}

func TestUserTweetsFollowsCursors(t *testing.T) {
	var cursors []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sapi/UserTweets", r.URL.Path)
		require.Equal(t, "44196397", r.URL.Query().Get("user_id"))

		cursor := r.URL.Query().Get("cursor")
		cursors = append(cursors, cursor)
		switch cursor {
		case "null":
			w.Write([]byte(`{"tweets": [{"id_str": "1"}, {"id_str": "2"}], "next_cursor_str": "page2"}`))
		case "page2":
			w.Write([]byte(`{"tweets": [{"id_str": "3"}]}`))
		default:
			t.Errorf("unexpected cursor %q", cursor)
		}
	}))
	defer srv.Close()

	tweets, err := newTestClient(t, srv.URL).UserTweets(context.Background(), "44196397", 0)
	require.NoError(t, err)
	require.Len(t, tweets, 3)
	require.Equal(t, []string{"null", "page2"}, cursors)
	require.JSONEq(t, `{"id_str": "3"}`, string(tweets[2]))
}

func TestUserTweetsRespectsPageCeiling(t *testing.T) {
	var pagesServed int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pagesServed++
		fmt.Fprintf(w, `{"tweets": [{"id_str": "%d"}], "next_cursor_str": "page%d"}`, pagesServed, pagesServed+1)
	}))
	defer srv.Close()

	tweets, err := newTestClient(t, srv.URL).UserTweets(context.Background(), "44196397", 3)
	require.NoError(t, err)
	require.Equal(t, 3, pagesServed)
	require.Len(t, tweets, 3)
}

func TestUserTweetsKeepsPartialResultsOnFailure(t *testing.T) {
	var pagesServed int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pagesServed++
		if pagesServed >= 2 {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"tweets": [{"id_str": "1"}], "next_cursor_str": "page2"}`))
	}))
	defer srv.Close()

	tweets, err := newTestClient(t, srv.URL).UserTweets(context.Background(), "44196397", 5)
	require.Error(t, err)
	require.Len(t, tweets, 1)
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(ClientOptions{})
	require.Error(t, err)
}

func TestFileName(t *testing.T) {
	require.Equal(t, "elonmusk.json", FileName("elonmusk"))
}
