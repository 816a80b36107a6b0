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

// Package http serves a trust anchor configuration read-only over HTTP.
package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/eutl-dev/lotlanchors/api"
	"github.com/eutl-dev/lotlanchors/internal/anchor"
	"github.com/eutl-dev/lotlanchors/lotl"
	"github.com/eutl-dev/lotlanchors/monitoring"
	"github.com/gorilla/mux"
	"golang.org/x/time/rate"
	"k8s.io/klog/v2"
)

var (
	httpDoOnce                  sync.Once
	counterHTTPIncomingRequest  monitoring.Counter
	counterHTTPIncomingResponse monitoring.Counter
	counterHTTPIncomingPushback monitoring.Counter
)

func initHTTPMetrics() {
	httpDoOnce.Do(func() {
		mf := monitoring.GetMetricFactory()
		const (
			route  = "route"
			status = "status"
		)
		counterHTTPIncomingRequest = mf.NewCounter("http_request", "Number of HTTP requests received", route)
		counterHTTPIncomingResponse = mf.NewCounter("http_response", "HTTP responses", route, status)
		counterHTTPIncomingPushback = mf.NewCounter("http_pushback", "Number of pushed-back HTTP requests")
	})
}

// Server is the core handler implementation of the trust anchor server.
// Responses are built once when the Server is created, since the
// configuration never changes.
type Server struct {
	cfg         *lotl.Configuration
	limiter     *rate.Limiter
	publication []byte
	certs       []byte
	pems        []string
	bundle      []byte
}

// NewServer creates a new server for cfg. If rateLimit is greater than zero
// it is the maximum number of requests served per second.
func NewServer(cfg *lotl.Configuration, rateLimit float64) (*Server, error) {
	initHTTPMetrics()
	infos, err := anchor.DescribeAll(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to describe anchors: %v", err)
	}
	s := &Server{cfg: cfg}
	if rateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(rateLimit), max(1, int(rateLimit)))
	}

	certs := make([]api.Certificate, 0, len(infos))
	var bundle strings.Builder
	for _, i := range infos {
		certs = append(certs, api.Certificate{
			Index:     i.Index,
			PEM:       i.PEM,
			SHA256:    i.SHA256,
			Subject:   i.Subject,
			Issuer:    i.Issuer,
			NotBefore: i.NotBefore,
			NotAfter:  i.NotAfter,
		})
		s.pems = append(s.pems, i.PEM)
		bundle.WriteString(i.PEM)
		if !strings.HasSuffix(i.PEM, "\n") {
			bundle.WriteString("\n")
		}
	}
	s.bundle = []byte(bundle.String())
	if s.certs, err = json.Marshal(certs); err != nil {
		return nil, fmt.Errorf("failed to convert certificates to JSON: %v", err)
	}
	if s.publication, err = json.Marshal(api.Publication{ID: cfg.PublicationID(), URL: cfg.CurrentlySupportedPublication()}); err != nil {
		return nil, fmt.Errorf("failed to convert publication to JSON: %v", err)
	}
	return s, nil
}

// getTrustedListURI returns the location of the LOTL.
func (s *Server) getTrustedListURI(w http.ResponseWriter, r *http.Request) {
	write(w, "uri", "text/plain; charset=utf-8", []byte(s.cfg.TrustedListURL()+"\n"))
}

// getPublication returns the publication the anchors were taken from.
func (s *Server) getPublication(w http.ResponseWriter, r *http.Request) {
	write(w, "publication", "application/json", s.publication)
}

// getCertificates returns all anchors, in order.
func (s *Server) getCertificates(w http.ResponseWriter, r *http.Request) {
	write(w, "certificates", "application/json", s.certs)
}

// getCertificate returns a single anchor as PEM.
func (s *Server) getCertificate(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil || idx < 0 || idx >= len(s.pems) {
		counterHTTPIncomingResponse.Inc("certificate", strconv.Itoa(http.StatusNotFound))
		http.Error(w, "unknown certificate", http.StatusNotFound)
		return
	}
	write(w, "certificate", api.ContentTypePEM, []byte(s.pems[idx]))
}

// getBundle returns all anchors as a single PEM bundle.
func (s *Server) getBundle(w http.ResponseWriter, r *http.Request) {
	write(w, "bundle", api.ContentTypePEM, s.bundle)
}

func write(w http.ResponseWriter, route, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	if _, err := w.Write(body); err != nil {
		klog.Warningf("Error writing response: %v", err)
	}
	counterHTTPIncomingResponse.Inc(route, strconv.Itoa(http.StatusOK))
}

// limit wraps h so that requests beyond the configured rate are pushed back.
func (s *Server) limit(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counterHTTPIncomingRequest.Inc(route)
		if s.limiter != nil && !s.limiter.Allow() {
			counterHTTPIncomingPushback.Inc()
			counterHTTPIncomingResponse.Inc(route, strconv.Itoa(http.StatusTooManyRequests))
			klog.V(1).Infof("Too many HTTP requests, pushing back.")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		h(w, r)
	}
}

// RegisterHandlers registers HTTP handlers for the trust anchor endpoints.
func (s *Server) RegisterHandlers(r *mux.Router) {
	r.HandleFunc(api.HTTPGetTrustedListURI, s.limit("uri", s.getTrustedListURI)).Methods(http.MethodGet)
	r.HandleFunc(api.HTTPGetPublication, s.limit("publication", s.getPublication)).Methods(http.MethodGet)
	r.HandleFunc(api.HTTPGetCertificates, s.limit("certificates", s.getCertificates)).Methods(http.MethodGet)
	r.HandleFunc(fmt.Sprintf(api.HTTPGetCertificate, "{index:[0-9]+}"), s.limit("certificate", s.getCertificate)).Methods(http.MethodGet)
	r.HandleFunc(api.HTTPGetBundle, s.limit("bundle", s.getBundle)).Methods(http.MethodGet)
}
