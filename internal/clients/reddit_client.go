package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/jess-tech-lab/threader-ai/internal/models"
	"github.com/jess-tech-lab/threader-ai/internal/retry"
)

const (
	REDDIT_AUTH_URL = "https://www.reddit.com/api/v1/access_token"
	REDDIT_API_URL  = "https://oauth.reddit.com"
)

// Page is one slice of an upstream listing plus the cursor for the next one.
// An empty After means the listing is exhausted.
type Page struct {
	Items []models.RawItem
	After string
}

type RedditClient struct {
	config *clientcredentials.Config
	client *http.Client
	mu     sync.Mutex
}

func NewRedditClient(clientID, clientSecret string) *RedditClient {
	oauthConf := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     REDDIT_AUTH_URL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	return &RedditClient{
		config: oauthConf,
		client: oauthConf.Client(context.Background()),
	}
}

func (rc *RedditClient) refreshClient() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.client = rc.config.Client(context.Background())
}

// FetchPage requests one page of the subreddit's newest posts. The outcome
// classifies any failure so the caller's retry policy can decide how long to
// wait before trying the same page again.
func (rc *RedditClient) FetchPage(ctx context.Context, subreddit, after string, limit int) (Page, retry.Outcome, error) {
	parsedURL, err := url.Parse(fmt.Sprintf("%s/r/%s/new", REDDIT_API_URL, subreddit))
	if err != nil {
		return Page{}, retry.OutcomeFatal, fmt.Errorf("[RedditClient] Failed to parse URL: %w", err)
	}

	queryParams := parsedURL.Query()
	queryParams.Add("limit", fmt.Sprintf("%d", limit))
	if after != "" {
		queryParams.Add("after", after)
	}
	parsedURL.RawQuery = queryParams.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsedURL.String(), nil)
	if err != nil {
		return Page{}, retry.OutcomeFatal, err
	}
	req.Header.Set("User-Agent", USER_AGENT)

	resp, err := rc.client.Do(req)
	if err != nil {
		return Page{}, retry.OutcomeTransient, fmt.Errorf("[RedditClient] request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return Page{}, retry.OutcomeTransient, fmt.Errorf("[RedditClient] failed to read body: %w", err)
		}
		page, err := parseListing(body, subreddit)
		if err != nil {
			return Page{}, retry.OutcomeFatal, err
		}
		return page, retry.OutcomeOK, nil

	case resp.StatusCode == http.StatusUnauthorized:
		slog.Warn("[RedditClient] Token expired - refreshing client")
		rc.refreshClient()
		return Page{}, retry.OutcomeTransient, fmt.Errorf("[RedditClient] 401 unauthorized")

	case resp.StatusCode == http.StatusTooManyRequests:
		return Page{}, retry.OutcomeRateLimited, fmt.Errorf("[RedditClient] 429 too many requests")

	case resp.StatusCode == http.StatusForbidden:
		return Page{}, retry.OutcomeBlocked, fmt.Errorf("[RedditClient] 403 forbidden for r/%s", subreddit)

	case resp.StatusCode >= 500:
		return Page{}, retry.OutcomeTransient, fmt.Errorf("[RedditClient] server error %d", resp.StatusCode)

	default:
		return Page{}, retry.OutcomeFatal, fmt.Errorf("[RedditClient] unexpected status %d", resp.StatusCode)
	}
}

func parseListing(body []byte, subreddit string) (Page, error) {
	var listing models.RedditAPIResponse
	if err := json.Unmarshal(body, &listing); err != nil {
		return Page{}, fmt.Errorf("[RedditClient] failed to parse listing for r/%s: %w", subreddit, err)
	}

	items := make([]models.RawItem, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		d := child.Data
		permalink := d.Permalink
		if permalink != "" && !strings.HasPrefix(permalink, "http") {
			permalink = "https://www.reddit.com" + permalink
		}
		items = append(items, models.RawItem{
			SourceID:     d.ID,
			Source:       d.Subreddit,
			Title:        d.Title,
			Body:         d.Selftext,
			Author:       d.Author,
			Upvotes:      d.Ups,
			CommentCount: d.NumComments,
			CreatedAt:    time.Unix(int64(d.CreatedUTC), 0).UTC(),
			Permalink:    permalink,
		})
	}

	return Page{Items: items, After: listing.Data.After}, nil
}
