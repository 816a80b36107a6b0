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

// Package anchor provides a descriptor for trust anchors, giving a common
// description of them to the server and the command line tools.
package anchor

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/eutl-dev/lotlanchors/lotl"
)

// Info describes one trust anchor.
type Info struct {
	// Index is the position of the anchor in the published order.
	Index int
	// PEM is the certificate exactly as configured.
	PEM string
	// SHA256 is the recorded base64 encoded digest of the DER certificate.
	SHA256 string
	// Fingerprint is the hex encoded SHA-256 digest, as shown by most tools.
	Fingerprint string
	Subject     string
	Issuer      string
	Serial      string
	NotBefore   time.Time
	NotAfter    time.Time
}

// Describe parses the certificate held by c.
func Describe(index int, c lotl.PemCertificateWithHash) (Info, error) {
	cert, err := c.Certificate()
	if err != nil {
		return Info{}, fmt.Errorf("anchor %d: %w", index, err)
	}
	sum := sha256.Sum256(cert.Raw)
	return Info{
		Index:       index,
		PEM:         c.PEM(),
		SHA256:      c.Hash(),
		Fingerprint: hex.EncodeToString(sum[:]),
		Subject:     cert.Subject.String(),
		Issuer:      cert.Issuer.String(),
		Serial:      cert.SerialNumber.Text(16),
		NotBefore:   cert.NotBefore.UTC(),
		NotAfter:    cert.NotAfter.UTC(),
	}, nil
}

// DescribeAll describes every anchor in cfg, in order.
func DescribeAll(cfg *lotl.Configuration) ([]Info, error) {
	infos := make([]Info, 0, cfg.Len())
	for i, c := range cfg.All() {
		info, err := Describe(i, c)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// ValidAt reports whether t falls inside the validity period of the anchor.
func (i Info) ValidAt(t time.Time) bool {
	return !t.Before(i.NotBefore) && !t.After(i.NotAfter)
}
