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

package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/eutl-dev/lotlanchors/api"
	"github.com/eutl-dev/lotlanchors/lotl"
	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/mux"
)

func testConfig(t *testing.T) *lotl.Configuration {
	t.Helper()
	b, err := os.ReadFile("../../lotl/testdata/anchors_test.yaml")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	cfg, err := lotl.NewStaticConfiguration(b)
	if err != nil {
		t.Fatalf("NewStaticConfiguration: %v", err)
	}
	return cfg
}

func createTestEnv(t *testing.T, cfg *lotl.Configuration, rateLimit float64) (*httptest.Server, func()) {
	t.Helper()
	server, err := NewServer(cfg, rateLimit)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	r := mux.NewRouter()
	server.RegisterHandlers(r)
	ts := httptest.NewServer(r)
	return ts, ts.Close
}

func get(t *testing.T, ts *httptest.Server, path string) (int, string, []byte) {
	t.Helper()
	resp, err := ts.Client().Get(ts.URL + path)
	if err != nil {
		t.Fatalf("Get(%q): %v", path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return resp.StatusCode, resp.Header.Get("Content-Type"), body
}

func TestEndpoints(t *testing.T) {
	cfg := testConfig(t)
	certs := cfg.Certificates()
	ts, closeFn := createTestEnv(t, cfg, 0)
	defer closeFn()

	for _, test := range []struct {
		desc            string
		path            string
		wantStatus      int
		wantContentType string
		wantBody        string
	}{
		{
			desc:            "uri",
			path:            api.HTTPGetTrustedListURI,
			wantStatus:      http.StatusOK,
			wantContentType: "text/plain; charset=utf-8",
			wantBody:        "https://example.com/lotl/test-lotl.xml\n",
		}, {
			desc:            "publication",
			path:            api.HTTPGetPublication,
			wantStatus:      http.StatusOK,
			wantContentType: "application/json",
			wantBody:        `{"id":"TEST/C 001/01","url":"https://example.com/oj/test"}`,
		}, {
			desc:            "first certificate",
			path:            fmt.Sprintf(api.HTTPGetCertificate, "0"),
			wantStatus:      http.StatusOK,
			wantContentType: api.ContentTypePEM,
			wantBody:        certs[0].PEM(),
		}, {
			desc:            "last certificate",
			path:            fmt.Sprintf(api.HTTPGetCertificate, "2"),
			wantStatus:      http.StatusOK,
			wantContentType: api.ContentTypePEM,
			wantBody:        certs[2].PEM(),
		}, {
			desc:       "out of range certificate",
			path:       fmt.Sprintf(api.HTTPGetCertificate, "3"),
			wantStatus: http.StatusNotFound,
		}, {
			desc:       "non numeric certificate",
			path:       fmt.Sprintf(api.HTTPGetCertificate, "first"),
			wantStatus: http.StatusNotFound,
		}, {
			desc:            "bundle",
			path:            api.HTTPGetBundle,
			wantStatus:      http.StatusOK,
			wantContentType: api.ContentTypePEM,
			wantBody:        certs[0].PEM() + certs[1].PEM() + certs[2].PEM(),
		},
	} {
		t.Run(test.desc, func(t *testing.T) {
			status, ct, body := get(t, ts, test.path)
			if got, want := status, test.wantStatus; got != want {
				t.Fatalf("status code got %d, want %d", got, want)
			}
			if test.wantStatus != http.StatusOK {
				return
			}
			if got, want := ct, test.wantContentType; got != want {
				t.Errorf("content type got %q, want %q", got, want)
			}
			if got, want := string(body), test.wantBody; got != want {
				t.Errorf("body got %q, want %q", got, want)
			}
		})
	}
}

func TestGetCertificates(t *testing.T) {
	cfg := testConfig(t)
	ts, closeFn := createTestEnv(t, cfg, 0)
	defer closeFn()

	status, _, body := get(t, ts, api.HTTPGetCertificates)
	if status != http.StatusOK {
		t.Fatalf("status code got %d, want %d", status, http.StatusOK)
	}
	var got []api.Certificate
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("failed to unmarshal body: %v", err)
	}
	if len(got) != cfg.Len() {
		t.Fatalf("got %d certificates, want %d", len(got), cfg.Len())
	}
	for i, c := range cfg.All() {
		want := api.Certificate{
			Index:   i,
			PEM:     c.PEM(),
			SHA256:  c.Hash(),
			Subject: fmt.Sprintf("CN=Test Anchor %d,O=LOTL Test,C=EU", i+1),
			Issuer:  fmt.Sprintf("CN=Test Anchor %d,O=LOTL Test,C=EU", i+1),
		}
		if diff := cmp.Diff(want, got[i], cmp.FilterPath(func(p cmp.Path) bool {
			s := p.String()
			return s == "NotBefore" || s == "NotAfter"
		}, cmp.Ignore())); diff != "" {
			t.Errorf("certificate %d (-want +got):\n%s", i, diff)
		}
		if !got[i].NotBefore.Before(got[i].NotAfter) {
			t.Errorf("certificate %d: NotBefore %v not before NotAfter %v", i, got[i].NotBefore, got[i].NotAfter)
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts, closeFn := createTestEnv(t, testConfig(t), 0)
	defer closeFn()
	resp, err := ts.Client().Post(ts.URL+api.HTTPGetTrustedListURI, "text/plain", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	_ = resp.Body.Close()
	if got, want := resp.StatusCode, http.StatusMethodNotAllowed; got != want {
		t.Errorf("status code got %d, want %d", got, want)
	}
}

func TestRateLimit(t *testing.T) {
	ts, closeFn := createTestEnv(t, testConfig(t), 1)
	defer closeFn()

	var statuses []int
	for range 5 {
		status, _, _ := get(t, ts, api.HTTPGetTrustedListURI)
		statuses = append(statuses, status)
	}
	if statuses[0] != http.StatusOK {
		t.Errorf("first request got %d, want %d", statuses[0], http.StatusOK)
	}
	pushedBack := 0
	for _, s := range statuses {
		if s == http.StatusTooManyRequests {
			pushedBack++
		}
	}
	if pushedBack == 0 {
		t.Errorf("no requests pushed back: %v", statuses)
	}
}

func TestNewServerRejectsUnparseableAnchors(t *testing.T) {
	cfg, err := lotl.NewStaticConfiguration([]byte("TrustedListURL: https://example.com/lotl.xml\nCertificates:\n  - PEM: garbage\n    SHA256: x\n"))
	if err != nil {
		t.Fatalf("NewStaticConfiguration: %v", err)
	}
	if _, err := NewServer(cfg, 0); err == nil {
		t.Error("NewServer: got nil error")
	}
}
