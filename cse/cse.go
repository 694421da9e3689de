// Copyright 2026 CSE Feed

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cse

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"
)

type contextKey int

const (
	clientContextKey contextKey = iota
)

// URL is the default detailed-trades endpoint. It may be overwritten in
// configs or tests before creating a new client.
var URL = "https://www.cse.lk/api/detailedTrades"

// Timeout bounds each request issued by the default HTTP client.
const Timeout = 30 * time.Second

// Client for querying the CSE detailed-trades API.
type Client struct {
	url        string // the full endpoint URL
	httpClient *http.Client
}

// newClient creates a new client. A nil httpClient falls back to a fresh
// client with the standard timeout.
func newClient(url string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: Timeout}
	}
	return &Client{url: url, httpClient: httpClient}
}

// GetClient extracts the Client from the context, if any.
func GetClient(ctx context.Context) *Client {
	c, ok := ctx.Value(clientContextKey).(*Client)
	if !ok {
		return nil
	}
	return c
}

// UseClient creates a new client for the given endpoint URL and injects it
// into the context. httpClient may be nil, in which case a default client
// with the standard timeout is used.
func UseClient(ctx context.Context, url string, httpClient *http.Client) context.Context {
	return context.WithValue(ctx, clientContextKey, newClient(url, httpClient))
}

// DetailedTrades downloads and parses the detailed-trades payload using the
// Client from the context.
//
// The endpoint expects a POST with an empty body, but some versions of the
// API only serve GET; a POST response with a non-200 status is therefore
// retried exactly once as GET against the same URL. There is no further
// retry and no backoff. A transport-level POST failure is fatal without a
// fallback.
func DetailedTrades(ctx context.Context) (*Payload, error) {
	client := GetClient(ctx)
	if client == nil {
		return nil, errors.Reason("DetailedTrades: no client in context")
	}
	resp, err := client.do(ctx, http.MethodPost)
	if err != nil {
		return nil, errors.Annotate(err, "POST request to '%s' failed", client.url)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		logging.Debugf(ctx, "POST %s returned status %d, retrying as GET",
			client.url, resp.StatusCode)
		resp, err = client.do(ctx, http.MethodGet)
		if err != nil {
			return nil, errors.Annotate(err, "GET request to '%s' failed", client.url)
		}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, errors.Reason("'%s' returned status %d %s", client.url,
			resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Annotate(err, "failed to read response body from '%s'",
			client.url)
	}
	p, err := ParsePayload(body)
	if err != nil {
		return nil, errors.Annotate(err, "unusable response body from '%s'",
			client.url)
	}
	return p, nil
}

// do issues a single request with the given method and an empty body.
func (c *Client) do(ctx context.Context, method string) (*http.Response, error) {
	var body io.Reader
	if method == http.MethodPost {
		body = strings.NewReader("")
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url, body)
	if err != nil {
		return nil, errors.Annotate(err, "failed to create %s request", method)
	}
	return c.httpClient.Do(req)
}
