package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractVideoID(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ", false},
		{"https://m.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"", "", true},
		{"https://example.com/watch?v=dQw4w9WgXcQ", "", true},
		{"https://www.youtube.com/watch", "", true},
		{"not a url at all", "", true},
	}
	for _, tc := range cases {
		got, err := ExtractVideoID(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ExtractVideoID(%q) expected error, got %q", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ExtractVideoID(%q) failed: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ExtractVideoID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func commentPage(texts []string, nextToken string) map[string]any {
	items := make([]map[string]any, len(texts))
	for i, text := range texts {
		items[i] = map[string]any{
			"snippet": map[string]any{
				"topLevelComment": map[string]any{
					"snippet": map[string]any{"textOriginal": text},
				},
			},
		}
	}
	page := map[string]any{"items": items}
	if nextToken != "" {
		page["nextPageToken"] = nextToken
	}
	return page
}

func TestFetchCommentsPaginates(t *testing.T) {
	pages := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		if r.URL.Query().Get("videoId") != "dQw4w9WgXcQ" {
			t.Errorf("unexpected videoId %q", r.URL.Query().Get("videoId"))
		}
		var page map[string]any
		if r.URL.Query().Get("pageToken") == "" {
			page = commentPage([]string{"pertama", "kedua"}, "tok2")
		} else {
			page = commentPage([]string{"ketiga", "keempat"}, "")
		}
		json.NewEncoder(w).Encode(page)
	}))
	defer srv.Close()

	client := NewYouTubeClientWithBaseURL("test-key", srv.URL, srv.Client())
	comments, err := client.FetchComments(context.Background(), "https://youtu.be/dQw4w9WgXcQ", 3)
	if err != nil {
		t.Fatalf("FetchComments failed: %v", err)
	}
	if len(comments) != 3 {
		t.Fatalf("expected 3 comments (limit), got %d: %v", len(comments), comments)
	}
	if comments[0] != "pertama" || comments[2] != "ketiga" {
		t.Fatalf("unexpected comments: %v", comments)
	}
	if pages != 2 {
		t.Fatalf("expected 2 pages fetched, got %d", pages)
	}
}

func TestFetchCommentsDisabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"code":403,"errors":[{"reason":"commentsDisabled"}],"message":"disabled"}}`)
	}))
	defer srv.Close()

	client := NewYouTubeClientWithBaseURL("test-key", srv.URL, srv.Client())
	_, err := client.FetchComments(context.Background(), "dQw4w9WgXcQ", 10)
	if !errors.Is(err, ErrCommentsUnavailable) {
		t.Fatalf("expected ErrCommentsUnavailable, got %v", err)
	}
}

func TestFetchCommentsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"code":403,"errors":[{"reason":"quotaExceeded"}],"message":"quota"}}`)
	}))
	defer srv.Close()

	client := NewYouTubeClientWithBaseURL("test-key", srv.URL, srv.Client())
	_, err := client.FetchComments(context.Background(), "dQw4w9WgXcQ", 10)
	if err == nil {
		t.Fatal("expected error for quota failure")
	}
	if errors.Is(err, ErrCommentsUnavailable) {
		t.Fatalf("quota failure must not map to ErrCommentsUnavailable: %v", err)
	}
}

func TestFetchCommentsSkipsEmptyTexts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(commentPage([]string{"  ", "berisi teks"}, ""))
	}))
	defer srv.Close()

	client := NewYouTubeClientWithBaseURL("test-key", srv.URL, srv.Client())
	comments, err := client.FetchComments(context.Background(), "dQw4w9WgXcQ", 10)
	if err != nil {
		t.Fatalf("FetchComments failed: %v", err)
	}
	if len(comments) != 1 || comments[0] != "berisi teks" {
		t.Fatalf("expected blank comments dropped, got %v", comments)
	}
}

func TestFetchCommentsInvalidURL(t *testing.T) {
	client := NewYouTubeClient("test-key", http.DefaultClient)
	if _, err := client.FetchComments(context.Background(), "https://example.com/nope", 10); err == nil {
		t.Fatal("expected error for non-YouTube URL")
	}
}
