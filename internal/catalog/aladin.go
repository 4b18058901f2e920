// Package catalog proxies the Aladin book search API. The TTB key stays on
// the server; clients only see the search parameters.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"bookshelf/internal/model"
)

const (
	DefaultBaseURL = "http://www.aladin.co.kr/ttb/api/ItemSearch.aspx"
	APIVersion     = "20131101"

	DefaultQueryType    = "Keyword"
	DefaultSearchTarget = "Book"
	DefaultMaxResults   = 10
	MaxMaxResults       = 100
)

var (
	ErrMissingQuery = errors.New("query is required")
	ErrMissingKey   = errors.New("aladin api key is not configured")
)

// UpstreamError carries a non-2xx status returned by Aladin.
type UpstreamError struct {
	Status int
	Reason string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("aladin request failed: %d %s", e.Status, e.Reason)
}

// SearchParams mirrors the query string accepted by the search endpoint.
type SearchParams struct {
	Query        string
	QueryType    string // Title, Author, Publisher or Keyword
	MaxResults   int
	Start        int
	SearchTarget string // Book, Foreign, Music, DVD, Used, eBook or All
}

// withDefaults fills unset fields and clamps MaxResults.
func (p SearchParams) withDefaults() SearchParams {
	if p.QueryType == "" {
		p.QueryType = DefaultQueryType
	}
	if p.MaxResults <= 0 {
		p.MaxResults = DefaultMaxResults
	}
	if p.MaxResults > MaxMaxResults {
		p.MaxResults = MaxMaxResults
	}
	if p.Start <= 0 {
		p.Start = 1
	}
	if p.SearchTarget == "" {
		p.SearchTarget = DefaultSearchTarget
	}
	return p
}

// cacheKey identifies a normalized search.
func (p SearchParams) cacheKey() string {
	return strings.Join([]string{
		p.QueryType, p.SearchTarget, strconv.Itoa(p.Start), strconv.Itoa(p.MaxResults), p.Query,
	}, "|")
}

// SearchResult is Aladin's ItemSearch response with output=js.
type SearchResult struct {
	Version            string `json:"version"`
	Title              string `json:"title"`
	Link               string `json:"link"`
	PubDate            string `json:"pubDate"`
	TotalResults       int    `json:"totalResults"`
	StartIndex         int    `json:"startIndex"`
	ItemsPerPage       int    `json:"itemsPerPage"`
	Query              string `json:"query"`
	SearchCategoryID   int    `json:"searchCategoryId"`
	SearchCategoryName string `json:"searchCategoryName"`
	Item               []Item `json:"item"`
}

type Item struct {
	Title              string   `json:"title"`
	Link               string   `json:"link"`
	Author             string   `json:"author"`
	PubDate            string   `json:"pubDate"`
	Description        string   `json:"description"`
	ISBN               string   `json:"isbn"`
	ISBN13             string   `json:"isbn13"`
	ItemID             int64    `json:"itemId"`
	PriceSales         int      `json:"priceSales"`
	PriceStandard      int      `json:"priceStandard"`
	MallType           string   `json:"mallType"`
	StockStatus        string   `json:"stockStatus"`
	Mileage            int      `json:"mileage"`
	Cover              string   `json:"cover"`
	CategoryID         int      `json:"categoryId"`
	CategoryName       string   `json:"categoryName"`
	Publisher          string   `json:"publisher"`
	SalesPoint         int      `json:"salesPoint"`
	Adult              bool     `json:"adult"`
	FixedPrice         bool     `json:"fixedPrice"`
	CustomerReviewRank int      `json:"customerReviewRank"`
	SubInfo            *SubInfo `json:"subInfo,omitempty"`
}

type SubInfo struct {
	ItemPage      int    `json:"itemPage,omitempty"`
	SubTitle      string `json:"subTitle,omitempty"`
	OriginalTitle string `json:"originalTitle,omitempty"`
}

// Metadata converts a catalog item into the fields stored on a Book.
func (it Item) Metadata() *model.BookMetadata {
	meta := &model.BookMetadata{
		ISBN:      it.ISBN,
		Title:     it.Title,
		Author:    it.Author,
		Publisher: it.Publisher,
		PubDate:   it.PubDate,
		Cover:     it.Cover,
	}
	if it.ISBN13 != "" {
		isbn13 := it.ISBN13
		meta.ISBN13 = &isbn13
		if meta.ISBN == "" {
			meta.ISBN = isbn13
		}
	}
	if it.Description != "" {
		desc := it.Description
		meta.Description = &desc
	}
	if it.CategoryName != "" {
		cat := it.CategoryName
		meta.CategoryName = &cat
	}
	if it.PriceStandard > 0 {
		price := it.PriceStandard
		meta.PriceStandard = &price
	}
	return meta
}

// Searcher is implemented by Client and CachedClient.
type Searcher interface {
	Search(ctx context.Context, params SearchParams) (*SearchResult, error)
}

// Client calls Aladin directly, throttled by a token bucket.
type Client struct {
	httpClient *http.Client
	baseURL    string
	ttbKey     string
	limiter    *rate.Limiter
}

// NewClient creates a client. requestsPerSecond <= 0 disables throttling.
func NewClient(baseURL, ttbKey string, requestsPerSecond float64) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		ttbKey:     ttbKey,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

func (c *Client) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	if strings.TrimSpace(params.Query) == "" {
		return nil, ErrMissingQuery
	}
	if c.ttbKey == "" {
		log.Printf("[Catalog] Search FAILED: api key missing")
		return nil, ErrMissingKey
	}
	params = params.withDefaults()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	q := url.Values{}
	q.Set("ttbkey", c.ttbKey)
	q.Set("Query", params.Query)
	q.Set("QueryType", params.QueryType)
	q.Set("MaxResults", strconv.Itoa(params.MaxResults))
	q.Set("start", strconv.Itoa(params.Start))
	q.Set("SearchTarget", params.SearchTarget)
	q.Set("output", "js")
	q.Set("Version", APIVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[Catalog] Search FAILED: query=%q err=%v", params.Query, err)
		return nil, fmt.Errorf("aladin request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("[Catalog] Search FAILED: query=%q status=%d", params.Query, resp.StatusCode)
		return nil, &UpstreamError{Status: resp.StatusCode, Reason: http.StatusText(resp.StatusCode)}
	}

	var result SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode aladin response: %w", err)
	}

	log.Printf("[Catalog] Search OK: query=%q type=%s items=%d duration=%v",
		params.Query, params.QueryType, len(result.Item), time.Since(start))
	return &result, nil
}

// LookupISBN finds a single book by ISBN with a keyword search. It returns
// (nil, nil) when the catalog has no match.
func LookupISBN(ctx context.Context, s Searcher, isbn string) (*model.BookMetadata, error) {
	result, err := s.Search(ctx, SearchParams{Query: isbn, QueryType: DefaultQueryType, MaxResults: 1})
	if err != nil {
		return nil, err
	}
	if len(result.Item) == 0 {
		return nil, nil
	}
	meta := result.Item[0].Metadata()
	if meta.ISBN == "" {
		meta.ISBN = isbn
	}
	return meta, nil
}
