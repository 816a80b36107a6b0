// Copyright 2025 Google LLC. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package http is a simple client for fetching trust anchors from a server
// over HTTP.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cenkalti/backoff/v5"
	"github.com/eutl-dev/lotlanchors/api"
	"github.com/eutl-dev/lotlanchors/lotl"
	"k8s.io/klog/v2"
)

var (
	// ErrNotFound is returned when the server does not know the requested item.
	ErrNotFound = errors.New("not found")
	// ErrPushback is returned when the server keeps refusing requests with 429.
	ErrPushback = errors.New("server pushed back")
)

// maxResponseBytes bounds the size of any response body.
const maxResponseBytes = 1 << 20

// NewClient returns a Client for the server rooted at the given URL, using
// the http.Client provided.
func NewClient(u *url.URL, c *http.Client) Client {
	return Client{
		url:      u,
		client:   c,
		maxTries: 3,
	}
}

// Client fetches trust anchors from a server.
type Client struct {
	url      *url.URL
	client   *http.Client
	maxTries uint
}

// WithMaxTries returns a copy of c which makes at most n attempts per request.
func (c Client) WithMaxTries(n uint) Client {
	c.maxTries = n
	return c
}

// TrustedListURI returns the LOTL location served.
func (c Client) TrustedListURI(ctx context.Context) (*url.URL, error) {
	b, err := c.get(ctx, api.HTTPGetTrustedListURI)
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(strings.TrimSpace(string(b)))
	if err != nil {
		return nil, fmt.Errorf("invalid trusted list URI: %v", err)
	}
	return u, nil
}

// Publication returns the publication the served anchors come from.
func (c Client) Publication(ctx context.Context) (api.Publication, error) {
	var p api.Publication
	b, err := c.get(ctx, api.HTTPGetPublication)
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal(b, &p); err != nil {
		return p, fmt.Errorf("failed to unmarshal publication: %v", err)
	}
	return p, nil
}

// Certificates returns all served anchors, in order.
func (c Client) Certificates(ctx context.Context) ([]api.Certificate, error) {
	b, err := c.get(ctx, api.HTTPGetCertificates)
	if err != nil {
		return nil, err
	}
	var certs []api.Certificate
	if err := json.Unmarshal(b, &certs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal certificates: %v", err)
	}
	for i, cert := range certs {
		if cert.Index != i {
			return nil, fmt.Errorf("certificate at position %d has index %d", i, cert.Index)
		}
	}
	return certs, nil
}

// Certificate returns the PEM of the anchor at the given index.
func (c Client) Certificate(ctx context.Context, index int) (string, error) {
	b, err := c.get(ctx, fmt.Sprintf(api.HTTPGetCertificate, strconv.Itoa(index)))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Configuration fetches everything served and returns it as a
// lotl.Configuration. Hashes are taken as served; callers wanting to check
// them should use Verify on each certificate.
func (c Client) Configuration(ctx context.Context) (*lotl.Configuration, error) {
	u, err := c.TrustedListURI(ctx)
	if err != nil {
		return nil, err
	}
	p, err := c.Publication(ctx)
	if err != nil {
		return nil, err
	}
	certs, err := c.Certificates(ctx)
	if err != nil {
		return nil, err
	}
	pcs := make([]lotl.PemCertificateWithHash, 0, len(certs))
	for _, cert := range certs {
		pcs = append(pcs, lotl.NewPemCertificateWithHash(cert.PEM, cert.SHA256))
	}
	return lotl.NewConfiguration(u.String(), p.ID, p.URL, pcs)
}

// get fetches path relative to the server root, retrying on transient failures.
func (c Client) get(ctx context.Context, path string) ([]byte, error) {
	u := c.url.JoinPath(path)
	op := func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to create request: %v", err))
		}
		resp, err := c.client.Do(req)
		if err != nil {
			klog.V(1).Infof("GET %s: %v", u, err)
			return nil, fmt.Errorf("failed to do http request: %w", err)
		}
		defer func() {
			if err := resp.Body.Close(); err != nil {
				klog.Errorf("Failed to close response body: %v", err)
			}
		}()
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, fmt.Errorf("failed to read body: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return body, nil
		case resp.StatusCode == http.StatusNotFound:
			return nil, backoff.Permanent(fmt.Errorf("%s: %w", u, ErrNotFound))
		case resp.StatusCode == http.StatusTooManyRequests:
			klog.V(1).Infof("GET %s: pushed back", u)
			return nil, fmt.Errorf("%s: %w", u, ErrPushback)
		case resp.StatusCode >= 500:
			klog.V(1).Infof("GET %s: status %d", u, resp.StatusCode)
			return nil, fmt.Errorf("%s: unexpected status code %d", u, resp.StatusCode)
		default:
			return nil, backoff.Permanent(fmt.Errorf("%s: unexpected status code %d", u, resp.StatusCode))
		}
	}
	return backoff.Retry(ctx, op, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(c.maxTries))
}
