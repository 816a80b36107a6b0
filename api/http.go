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

// Package api describes the HTTP interface of the trust anchor server.
package api

import "time"

const (
	// HTTPGetTrustedListURI is the path for retrieving the LOTL location as
	// text/plain.
	HTTPGetTrustedListURI = "/lotl/v1/uri"
	// HTTPGetPublication is the path for retrieving the Publication.
	HTTPGetPublication = "/lotl/v1/publication"
	// HTTPGetCertificates is the path for retrieving all anchors as a JSON
	// list of Certificate.
	HTTPGetCertificates = "/lotl/v1/certificates"
	// HTTPGetCertificate is the path for retrieving one anchor as PEM.
	// It must be formatted with the index of the anchor.
	HTTPGetCertificate = "/lotl/v1/certificates/%s"
	// HTTPGetBundle is the path for retrieving every anchor as a single PEM
	// bundle, in order.
	HTTPGetBundle = "/lotl/v1/bundle"

	// ContentTypePEM is the content type of PEM responses.
	ContentTypePEM = "application/x-pem-file"
)

// Publication identifies the Official Journal publication the anchors come from.
type Publication struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Certificate is the JSON form of a trust anchor.
type Certificate struct {
	Index int `json:"index"`
	// PEM is the certificate exactly as configured.
	PEM string `json:"pem"`
	// SHA256 is the base64 encoded digest of the DER certificate.
	SHA256    string    `json:"sha256"`
	Subject   string    `json:"subject"`
	Issuer    string    `json:"issuer"`
	NotBefore time.Time `json:"not_before"`
	NotAfter  time.Time `json:"not_after"`
}
