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

package lotl

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
)

const pemCertificateType = "CERTIFICATE"

// PemCertificateWithHash is a PEM encoded certificate along with the base64
// encoded SHA-256 digest of its DER form.
//
// Values are comparable with ==.
type PemCertificateWithHash struct {
	pemCertificate string
	hash           string
}

// NewPemCertificateWithHash returns a new PemCertificateWithHash.
// Neither argument is checked; use Verify for that.
func NewPemCertificateWithHash(pemCertificate, hash string) PemCertificateWithHash {
	return PemCertificateWithHash{
		pemCertificate: pemCertificate,
		hash:           hash,
	}
}

// PEM returns the PEM encoded certificate.
func (p PemCertificateWithHash) PEM() string {
	return p.pemCertificate
}

// Hash returns the base64 encoded SHA-256 digest of the certificate.
func (p PemCertificateWithHash) Hash() string {
	return p.hash
}

// DER returns the bytes of the first CERTIFICATE block in the PEM data.
func (p PemCertificateWithHash) DER() ([]byte, error) {
	rest := []byte(p.pemCertificate)
	for {
		var b *pem.Block
		b, rest = pem.Decode(rest)
		if b == nil {
			return nil, fmt.Errorf("%w: no %s block found", ErrInvalidPEM, pemCertificateType)
		}
		if b.Type == pemCertificateType {
			return b.Bytes, nil
		}
	}
}

// ComputeHash returns the base64 encoded SHA-256 digest of the DER bytes.
func (p PemCertificateWithHash) ComputeHash() (string, error) {
	der, err := p.DER()
	if err != nil {
		return "", err
	}
	return hashDER(der), nil
}

// Verify checks that Hash matches the certificate held in PEM.
func (p PemCertificateWithHash) Verify() error {
	got, err := p.ComputeHash()
	if err != nil {
		return err
	}
	if got != p.hash {
		return fmt.Errorf("%w: computed %s, recorded %s", ErrHashMismatch, got, p.hash)
	}
	return nil
}

// Certificate parses the certificate held in PEM.
func (p PemCertificateWithHash) Certificate() (*x509.Certificate, error) {
	der, err := p.DER()
	if err != nil {
		return nil, err
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("parsing certificate: %w", err)
	}
	return cert, nil
}

func hashDER(der []byte) string {
	h := sha256.Sum256(der)
	return base64.StdEncoding.EncodeToString(h[:])
}
