// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scienceon is a client for the ScienceON article search OpenAPI.
// The client obtains a short-lived access token with the registered
// credentials and refreshes it transparently when it expires.
package scienceon

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pdiddy/submission-engine/internal/httputil"
	"github.com/pdiddy/submission-engine/pkg/types"
)

// API endpoints. Declared as vars so tests can substitute an httptest server.
var (
	TokenURL  = "https://apigateway.kisti.re.kr/tokenrequest.do"
	SearchURL = "https://apigateway.kisti.re.kr/openapicall.do"
)

// articleDetailURL is the public landing page for one article, keyed by
// control number. Slot values in the submission link back to it.
const articleDetailURL = "http://click.ndsl.kr/servlet/OpenAPIDetailView?keyValue=05787966&target=NART&cn="

// tokenSlack refreshes the token slightly before the server-side expiry.
const tokenSlack = 30 * time.Second

// Credentials identify a registered ScienceON API consumer.
type Credentials struct {
	AuthKey    string
	ClientID   string
	MACAddress string
}

// Validate checks the credential shape before any network call is made.
func (c Credentials) Validate() error {
	if c.AuthKey == "" || c.ClientID == "" || c.MACAddress == "" {
		return fmt.Errorf("scienceon credentials incomplete: auth key, client id and mac address are all required")
	}
	if len(c.AuthKey) != 32 {
		return fmt.Errorf("scienceon auth key must be 32 characters, got %d", len(c.AuthKey))
	}
	return nil
}

// Client queries the ScienceON article search API.
type Client struct {
	HTTP        *http.Client
	Credentials Credentials
	UserAgent   string

	token       string
	tokenExpiry time.Time
}

// NewClient returns a client using the given credentials and HTTP settings.
func NewClient(creds Credentials, cfg types.HTTPConfig) *Client {
	return &Client{
		HTTP:        &http.Client{Timeout: cfg.Timeout},
		Credentials: creds,
		UserAgent:   cfg.UserAgent,
	}
}

// tokenResponse is the JSON body returned by the token endpoint.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// ensureToken fetches a fresh access token when none is held or the held
// one is about to expire.
func (c *Client) ensureToken(ctx context.Context) error {
	if c.token != "" && time.Now().Before(c.tokenExpiry.Add(-tokenSlack)) {
		return nil
	}

	params := url.Values{
		"client_id":   {c.Credentials.ClientID},
		"auth_key":    {c.Credentials.AuthKey},
		"mac_address": {c.Credentials.MACAddress},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, TokenURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("ScienceON token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ScienceON token endpoint returned HTTP %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return fmt.Errorf("parsing token response: %w", err)
	}
	if tr.AccessToken == "" {
		return fmt.Errorf("ScienceON token endpoint returned an empty token")
	}

	expiresIn := tr.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 3600
	}
	c.token = tr.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(expiresIn) * time.Second)
	return nil
}

// SearchArticles queries the article index for one keyword and returns up
// to rowCount documents. A 401 response invalidates the cached token and
// the call is retried once with a fresh one.
func (c *Client) SearchArticles(ctx context.Context, keyword string, rowCount int) ([]types.Document, error) {
	if err := c.Credentials.Validate(); err != nil {
		return nil, err
	}
	if keyword == "" {
		return nil, fmt.Errorf("empty search keyword")
	}
	if rowCount <= 0 {
		rowCount = 25
	}

	docs, status, err := c.search(ctx, keyword, rowCount)
	if status == http.StatusUnauthorized {
		c.token = ""
		docs, status, err = c.search(ctx, keyword, rowCount)
	}
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("ScienceON search returned HTTP %d", status)
	}
	return docs, nil
}

func (c *Client) search(ctx context.Context, keyword string, rowCount int) ([]types.Document, int, error) {
	if err := c.ensureToken(ctx); err != nil {
		return nil, 0, err
	}

	params := url.Values{
		"client_id":    {c.Credentials.ClientID},
		"token":        {c.token},
		"version":      {"1.0"},
		"action":       {"search"},
		"target":       {"ARTI"},
		"searchValue":  {keyword},
		"curPage":      {"1"},
		"rowCount":     {strconv.Itoa(rowCount)},
		"searchFields": {"title,abstract,CN"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, SearchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating search request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.httpClient(), req, 0)
	if err != nil {
		return nil, 0, fmt.Errorf("ScienceON search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}

	var md metaData
	if err := xml.NewDecoder(resp.Body).Decode(&md); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("parsing search response: %w", err)
	}

	var docs []types.Document
	for _, rec := range md.RecordList.Records {
		doc := rec.toDocument()
		if doc.CN == "" && doc.Title == "" {
			continue
		}
		if doc.CN != "" {
			doc.SourceURL = articleDetailURL + doc.CN
		}
		docs = append(docs, doc)
	}
	return docs, resp.StatusCode, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

// ScienceON response XML structures. Each record is a list of metaCode/value
// items rather than named elements.
type metaData struct {
	XMLName       xml.Name      `xml:"MetaData"`
	ResultSummary resultSummary `xml:"resultSummary"`
	RecordList    recordList    `xml:"recordList"`
}

type resultSummary struct {
	TotalCount int `xml:"totalCount"`
}

type recordList struct {
	Records []record `xml:"record"`
}

type record struct {
	Items []recordItem `xml:"item"`
}

type recordItem struct {
	MetaCode string `xml:"metaCode,attr"`
	Value    string `xml:"value"`
}

// toDocument maps a record's metaCode items onto a Document.
func (r record) toDocument() types.Document {
	var doc types.Document
	for _, item := range r.Items {
		switch item.MetaCode {
		case "Title":
			doc.Title = item.Value
		case "Abstract":
			doc.Abstract = item.Value
		case "CN":
			doc.CN = item.Value
		}
	}
	return doc
}
