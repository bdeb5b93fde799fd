// Package websearch finds candidate pages for a query.
package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/pkg/utils"
)

// DefaultSerpAPIURL is the SerpAPI JSON search endpoint.
const DefaultSerpAPIURL = "https://serpapi.com/search.json"

// Searcher returns organic results for a query in relevance order.
type Searcher interface {
	Search(ctx context.Context, query string) ([]models.WebResult, error)
}

// SerpAPI searches through serpapi.com.
type SerpAPI struct {
	client  *http.Client
	baseURL string
	engine  string
	apiKey  string
	logger  *zap.Logger
}

// Option configures SerpAPI.
type Option func(*SerpAPI)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(s *SerpAPI) { s.logger = l }
}

// NewSerpAPI creates a client from cfg. The API key is required.
func NewSerpAPI(cfg *config.SearchConfig, opts ...Option) (*SerpAPI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("serpapi: api key is required (search.api_key or SERP_API_KEY)")
	}
	s := &SerpAPI{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		engine:  cfg.Engine,
		apiKey:  cfg.APIKey,
	}
	if s.baseURL == "" {
		s.baseURL = DefaultSerpAPIURL
	}
	if s.engine == "" {
		s.engine = config.DefaultSearchEngine
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = utils.OrNop(s.logger)
	return s, nil
}

type serpResponse struct {
	Error          string `json:"error"`
	OrganicResults []struct {
		Link  string `json:"link"`
		Title string `json:"title"`
	} `json:"organic_results"`
}

// Search runs query and returns the organic results that have a link.
// A search that matched nothing returns an empty slice, not an error.
func (s *SerpAPI) Search(ctx context.Context, query string) ([]models.WebResult, error) {
	params := url.Values{}
	params.Set("engine", s.engine)
	params.Set("q", query)
	params.Set("api_key", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}
	var body serpResponse
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("decode search response (status %d): %w", resp.StatusCode, err)
	}
	if body.Error != "" {
		if isNoResults(body.Error) {
			s.logger.Debug("search returned no results", zap.String("query", query))
			return []models.WebResult{}, nil
		}
		return nil, fmt.Errorf("serpapi: %s", body.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serpapi: unexpected status %d", resp.StatusCode)
	}

	results := make([]models.WebResult, 0, len(body.OrganicResults))
	for _, r := range body.OrganicResults {
		if r.Link == "" {
			continue
		}
		results = append(results, models.WebResult{Link: r.Link, Title: r.Title})
	}
	s.logger.Debug("search results", zap.String("query", query), zap.Int("count", len(results)))
	return results, nil
}

func isNoResults(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "hasn't returned any results")
}
