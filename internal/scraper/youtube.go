package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// ErrCommentsUnavailable is the expected "no data" signal: the video exists
// but its comments are disabled. Distinct from transport or API failures.
var ErrCommentsUnavailable = errors.New("comments are unavailable for this video")

const defaultAPIBaseURL = "https://www.googleapis.com/youtube/v3"
const maxPageSize = 100

// YouTubeClient fetches top-level comments through the YouTube Data API.
type YouTubeClient struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
}

func NewYouTubeClient(apiKey string, httpc *http.Client) *YouTubeClient {
	return &YouTubeClient{apiKey: apiKey, baseURL: defaultAPIBaseURL, httpc: httpc}
}

// NewYouTubeClientWithBaseURL exists for tests against a local server.
func NewYouTubeClientWithBaseURL(apiKey, baseURL string, httpc *http.Client) *YouTubeClient {
	return &YouTubeClient{apiKey: apiKey, baseURL: strings.TrimRight(baseURL, "/"), httpc: httpc}
}

type commentThreadsResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		Snippet struct {
			TopLevelComment struct {
				Snippet struct {
					TextOriginal string `json:"textOriginal"`
				} `json:"snippet"`
			} `json:"topLevelComment"`
		} `json:"snippet"`
	} `json:"items"`
}

type apiErrorResponse struct {
	Error struct {
		Code   int `json:"code"`
		Errors []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
		Message string `json:"message"`
	} `json:"error"`
}

// FetchComments returns up to limit top-level comments for the video in
// videoURL, in the API's relevance order. Disabled comments map to
// ErrCommentsUnavailable.
func (c *YouTubeClient) FetchComments(ctx context.Context, videoURL string, limit int) ([]string, error) {
	videoID, err := ExtractVideoID(videoURL)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	var comments []string
	pageToken := ""
	for len(comments) < limit {
		pageSize := limit - len(comments)
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}

		apiURL := fmt.Sprintf("%s/commentThreads?part=snippet&videoId=%s&maxResults=%d&textFormat=plainText&key=%s",
			c.baseURL, url.QueryEscape(videoID), pageSize, url.QueryEscape(c.apiKey))
		if pageToken != "" {
			apiURL += "&pageToken=" + url.QueryEscape(pageToken)
		}

		req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		resp, err := c.httpc.Do(req)
		if err != nil {
			return nil, fmt.Errorf("executing request: %w", err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}

		if resp.StatusCode != 200 {
			var apiErr apiErrorResponse
			if json.Unmarshal(body, &apiErr) == nil {
				for _, e := range apiErr.Error.Errors {
					if e.Reason == "commentsDisabled" {
						return nil, ErrCommentsUnavailable
					}
				}
			}
			return nil, fmt.Errorf("YouTube API returned %d: %s", resp.StatusCode, string(body))
		}

		var result commentThreadsResponse
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("parsing response: %w", err)
		}
		for _, item := range result.Items {
			text := strings.TrimSpace(item.Snippet.TopLevelComment.Snippet.TextOriginal)
			if text != "" {
				comments = append(comments, text)
			}
		}

		if result.NextPageToken == "" || len(result.Items) == 0 {
			break
		}
		pageToken = result.NextPageToken
	}

	if len(comments) > limit {
		comments = comments[:limit]
	}
	log.Printf("youtube fetch video=%s comments=%d", videoID, len(comments))
	return comments, nil
}

var videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{6,20}$`)

// ExtractVideoID pulls the video ID out of the usual YouTube URL shapes
// (watch?v=, youtu.be/, shorts/, embed/) or accepts a bare ID.
func ExtractVideoID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty video URL")
	}
	if videoIDRe.MatchString(raw) && !strings.Contains(raw, ".") {
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid video URL %q: %w", raw, err)
	}

	host := strings.TrimPrefix(u.Hostname(), "www.")
	switch host {
	case "youtu.be":
		id := strings.Trim(u.Path, "/")
		if videoIDRe.MatchString(id) {
			return id, nil
		}
	case "youtube.com", "m.youtube.com":
		if v := u.Query().Get("v"); videoIDRe.MatchString(v) {
			return v, nil
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) == 2 && (parts[0] == "shorts" || parts[0] == "embed") && videoIDRe.MatchString(parts[1]) {
			return parts[1], nil
		}
	}
	return "", fmt.Errorf("could not extract video ID from %q", raw)
}
