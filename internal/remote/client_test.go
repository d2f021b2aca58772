package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"twelfthman/internal/apperr"
	"twelfthman/internal/syncer"
)

var _ syncer.Remote = (*Client)(nil)

func TestSyncTakes_SendsBearerAndDecodesAcks(t *testing.T) {
	synced := time.Date(2025, 3, 1, 16, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/takes/sync" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("authorization=%q", got)
		}
		var body struct {
			Takes []syncer.Submission `json:"takes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Takes) != 1 {
			t.Errorf("body err=%v takes=%d", err, len(body.Takes))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"results": []syncer.Ack{{
			ClientID: body.Takes[0].ClientID, ProviderID: "p-1", Status: "posted", SyncedAt: synced,
		}}})
	}))
	defer srv.Close()

	c := New(srv.URL+"/", time.Second)
	c.SetToken(" tok-1 ")
	acks, err := c.SyncTakes(context.Background(), []syncer.Submission{{ClientID: "c-1", FixtureID: "fx-1", MatchRating: 7, Text: "what a game"}})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(acks) != 1 || acks[0].ClientID != "c-1" || acks[0].ProviderID != "p-1" || !acks[0].SyncedAt.Equal(synced) {
		t.Fatalf("acks=%+v", acks)
	}
}

func TestSyncTakes_NoToken(t *testing.T) {
	c := New("http://127.0.0.1:1", time.Second)
	_, err := c.SyncTakes(context.Background(), nil)
	if apperr.KindOf(err) != apperr.KindAuth {
		t.Fatalf("err=%v want auth", err)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		body   string
		kind   apperr.Kind
		code   string
	}{
		{http.StatusBadRequest, `{"error":{"code":"VALIDATION_ERROR","message":"Validation failed","details":[{"index":0,"field":"text","message":"too short"}]}}`, apperr.KindValidation, apperr.CodeValidation},
		{http.StatusUnauthorized, `{"error":{"code":"UNAUTHORIZED","message":"Invalid token"}}`, apperr.KindAuth, apperr.CodeUnauthorized},
		{http.StatusTooManyRequests, `{"error":{"code":"RATE_LIMIT_EXCEEDED","message":"Too many sync requests"}}`, apperr.KindRateLimited, apperr.CodeRateLimited},
		{http.StatusBadGateway, `<html>bad gateway</html>`, apperr.KindTransientSync, apperr.CodeSyncFailed},
		{http.StatusInternalServerError, `{"error":{"code":"INTERNAL_ERROR","message":"An unexpected error occurred"}}`, apperr.KindTransientSync, apperr.CodeSyncFailed},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			_, _ = w.Write([]byte(tt.body))
		}))
		c := New(srv.URL, time.Second)
		c.SetToken("tok")
		_, err := c.SyncTakes(context.Background(), []syncer.Submission{{ClientID: "c"}})
		srv.Close()
		e := apperr.As(err)
		if e.Kind != tt.kind || e.Code != tt.code {
			t.Fatalf("status=%d got kind=%s code=%s want kind=%s code=%s", tt.status, e.Kind, e.Code, tt.kind, tt.code)
		}
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(url, time.Second)
	c.SetToken("tok")
	_, err := c.SyncTakes(context.Background(), []syncer.Submission{{ClientID: "c"}})
	if apperr.KindOf(err) != apperr.KindTransientSync {
		t.Fatalf("err=%v want transient", err)
	}
}

func TestFeed_QueryAndDecode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("fixtureId") != "fx-1" || q.Get("limit") != "2" || q.Get("cursor") != "abc" {
			t.Errorf("query=%s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"items":[{"providerId":"p-2","text":"newest"},{"providerId":"p-1","text":"older"}],"nextCursor":"def"}`))
	}))
	defer srv.Close()

	page, err := New(srv.URL, time.Second).Feed(context.Background(), FeedQuery{FixtureID: "fx-1", Limit: 2, Cursor: "abc"})
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(page.Items) != 2 || page.Items[0].ProviderID != "p-2" || page.NextCursor == nil || *page.NextCursor != "def" {
		t.Fatalf("page=%+v", page)
	}
}

func TestRatings_DecodesDecimal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/fx-empty/ratings") {
			_, _ = w.Write([]byte(`{"fixtureId":"fx-empty","count":0,"average":null}`))
			return
		}
		_, _ = w.Write([]byte(`{"fixtureId":"fx-1","count":3,"average":"7.7"}`))
	}))
	defer srv.Close()
	c := New(srv.URL, time.Second)

	got, err := c.Ratings(context.Background(), "fx-1")
	if err != nil || got.Average == nil || got.Average.String() != "7.7" {
		t.Fatalf("got=%+v err=%v", got, err)
	}
	empty, err := c.Ratings(context.Background(), "fx-empty")
	if err != nil || empty.Average != nil {
		t.Fatalf("empty=%+v err=%v", empty, err)
	}
}

func TestLive_ReadsFrames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("fixtureId") != "fx-1" {
			t.Errorf("query=%s", r.URL.RawQuery)
		}
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()
		for _, text := range []string{"first", "second"} {
			payload, _ := json.Marshal(FeedItem{ProviderID: text, Text: text})
			if err := conn.Write(r.Context(), websocket.MessageText, payload); err != nil {
				return
			}
		}
		_, _, _ = conn.Read(r.Context())
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	errStop := errors.New("stop")
	var got []string
	err := New(srv.URL, time.Second).Live(ctx, "fx-1", func(item FeedItem) error {
		got = append(got, item.Text)
		if len(got) == 2 {
			return errStop
		}
		return nil
	})
	if !errors.Is(err, errStop) || len(got) != 2 || got[0] != "first" {
		t.Fatalf("err=%v got=%v", err, got)
	}
}
