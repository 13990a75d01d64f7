package source

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const (
	DefaultStravaBaseURL  = "https://www.strava.com/api/v3"
	DefaultStravaTokenURL = "https://www.strava.com/oauth/token"
	defaultPerPage        = 200
)

// StravaConfig holds the credentials and endpoints used by StravaClient.
type StravaConfig struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	AccessToken  string
	RefreshToken string
	Timeout      time.Duration
	PerPage      int
}

// StravaClient pages through the authenticated athlete's activities.
// Tokens live in memory for the client's lifetime; a refreshed pair replaces
// the configured one.
type StravaClient struct {
	http    *resty.Client
	oauth   oauth2.Config
	perPage int
	logger  zerolog.Logger

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

// NewStravaClient constructs a client, applying defaults for empty endpoints.
func NewStravaClient(cfg StravaConfig, logger zerolog.Logger) *StravaClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultStravaBaseURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultStravaTokenURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = defaultPerPage
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.Timeout)

	return &StravaClient{
		http: client,
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		perPage:      cfg.PerPage,
		logger:       logger.With().Str("component", "strava").Logger(),
		accessToken:  cfg.AccessToken,
		refreshToken: cfg.RefreshToken,
	}
}

// FetchActivities implements Fetcher. A 401 triggers exactly one token
// refresh, after which the listing restarts from the first page.
func (c *StravaClient) FetchActivities(ctx context.Context, limit int) ([]RawActivity, error) {
	activities, err := c.fetchAll(ctx, limit)
	if err == nil || !errors.Is(err, ErrUnauthorized) {
		return activities, err
	}

	c.logger.Info().Msg("access token rejected, refreshing")
	if err := c.refresh(ctx); err != nil {
		return nil, err
	}
	return c.fetchAll(ctx, limit)
}

func (c *StravaClient) fetchAll(ctx context.Context, limit int) ([]RawActivity, error) {
	token := c.currentAccessToken()
	var all []RawActivity
	for page := 1; ; page++ {
		batch, err := c.fetchPage(ctx, token, page)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		c.logger.Debug().Int("page", page).Int("count", len(batch)).Msg("fetched activities page")

		if len(batch) < c.perPage || (limit > 0 && len(all) >= limit) {
			break
		}
	}
	return truncate(all, limit), nil
}

func (c *StravaClient) fetchPage(ctx context.Context, token string, page int) ([]RawActivity, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParams(map[string]string{
			"page":     strconv.Itoa(page),
			"per_page": strconv.Itoa(c.perPage),
		}).
		Get("/athlete/activities")
	if err != nil {
		return nil, &FetchError{Kind: ErrTransport, Page: page, Err: err}
	}

	switch status := resp.StatusCode(); {
	case status == http.StatusUnauthorized:
		return nil, &FetchError{Kind: ErrUnauthorized, Page: page, Status: status}
	case status < 200 || status >= 300:
		return nil, &FetchError{Kind: ErrUnexpectedStatus, Page: page, Status: status, Err: errors.New(resp.String())}
	}

	var batch []RawActivity
	if err := json.Unmarshal(resp.Body(), &batch); err != nil {
		return nil, &FetchError{Kind: ErrTransport, Page: page, Err: err}
	}
	pagesFetchedCounter.WithLabelValues("strava").Inc()
	return batch, nil
}

func (c *StravaClient) refresh(ctx context.Context) error {
	c.mu.Lock()
	refreshToken := c.refreshToken
	c.mu.Unlock()
	if refreshToken == "" {
		tokenRefreshCounter.WithLabelValues("failed").Inc()
		return &FetchError{Kind: ErrRefreshFailed, Err: errors.New("no refresh token configured")}
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http.GetClient())
	token, err := c.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		tokenRefreshCounter.WithLabelValues("failed").Inc()
		c.logger.Error().Err(err).Msg("token refresh failed")
		return &FetchError{Kind: ErrRefreshFailed, Err: err}
	}

	c.mu.Lock()
	c.accessToken = token.AccessToken
	if token.RefreshToken != "" {
		c.refreshToken = token.RefreshToken
	}
	c.mu.Unlock()

	tokenRefreshCounter.WithLabelValues("succeeded").Inc()
	c.logger.Info().Msg("access token refreshed")
	return nil
}

func (c *StravaClient) currentAccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}
