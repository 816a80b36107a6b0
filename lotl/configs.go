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

// Package lotl provides the bootstrap material needed to validate the
// European Union List of Trusted Lists (LOTL): the canonical location of the
// list, the Official Journal publication it is anchored in, and the
// certificates published there which may sign it.
//
// The package performs no network access, and building a Configuration does
// not check the certificates against their recorded digests. A Configuration
// is immutable once built and may be shared freely between goroutines.
package lotl

import (
	_ "embed" // embed is needed to embed files as constants
	"errors"
	"fmt"
	"iter"
	"net/url"
	"slices"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultTrustedListURL is the canonical location of the EU LOTL.
	DefaultTrustedListURL = "https://ec.europa.eu/tools/lotl/eu-lotl.xml"
	// DefaultCurrentlySupportedPublication is the Official Journal publication
	// which lists the certificates allowed to sign the LOTL.
	DefaultCurrentlySupportedPublication = "https://eur-lex.europa.eu/legal-content/EN/TXT/?uri=uriserv:OJ.C_.2019.276.01.0001.01.ENG"
	// DefaultPublicationID is the Official Journal reference of the above.
	DefaultPublicationID = "2019/C 276/01"
)

var (
	// DefaultAnchors is the configuration compiled into the package.
	// Its schema is anchorsCfg.
	//go:embed anchors.yaml
	DefaultAnchors []byte
)

// anchorsCfg is the on-disk form of a Configuration.
type anchorsCfg struct {
	TrustedListURL string         `yaml:"TrustedListURL"`
	Publication    publicationCfg `yaml:"Publication"`
	Certificates   []certCfg      `yaml:"Certificates"`
}

type publicationCfg struct {
	ID  string `yaml:"ID"`
	URL string `yaml:"URL"`
}

// certCfg holds a single anchor. SHA256 is the base64 encoded digest of the
// DER bytes inside PEM.
type certCfg struct {
	PEM    string `yaml:"PEM"`
	SHA256 string `yaml:"SHA256"`
}

// Configuration holds the trust anchors for the EU LOTL.
//
// All accessors return copies, so callers cannot alter what other readers
// observe.
type Configuration struct {
	trustedListURL string
	trustedListURI url.URL
	publicationID  string
	publication    string
	certs          []PemCertificateWithHash
}

// New returns the configuration compiled into this package.
//
// An error is only returned if the embedded data is corrupt, in which case it
// is a *ConfigurationError. Callers must not fall back to another trusted list
// location when this happens.
func New() (*Configuration, error) {
	return NewStaticConfiguration(DefaultAnchors)
}

// NewStaticConfiguration creates a new Configuration based on the provided
// YAML data.
func NewStaticConfiguration(yamlCfg []byte) (*Configuration, error) {
	cfg := &anchorsCfg{}
	if err := yaml.Unmarshal(yamlCfg, cfg); err != nil {
		return nil, &ConfigurationError{Field: "anchors", Err: fmt.Errorf("failed to unmarshal anchors config: %w", err)}
	}
	certs := make([]PemCertificateWithHash, 0, len(cfg.Certificates))
	for i, cert := range cfg.Certificates {
		if cert.PEM == "" || cert.SHA256 == "" {
			return nil, &ConfigurationError{Field: fmt.Sprintf("Certificates[%d]", i), Err: errors.New("both PEM and SHA256 must be set")}
		}
		certs = append(certs, NewPemCertificateWithHash(cert.PEM, cert.SHA256))
	}
	return NewConfiguration(cfg.TrustedListURL, cfg.Publication.ID, cfg.Publication.URL, certs)
}

// NewConfiguration builds a Configuration from its parts. The certificates
// are copied and kept in the order given.
func NewConfiguration(trustedListURL, publicationID, publicationURL string, certs []PemCertificateWithHash) (*Configuration, error) {
	u, err := parseTrustedListURL(trustedListURL)
	if err != nil {
		return nil, &ConfigurationError{Field: "TrustedListURL", Value: trustedListURL, Err: err}
	}
	return &Configuration{
		trustedListURL: trustedListURL,
		trustedListURI: *u,
		publicationID:  publicationID,
		publication:    publicationURL,
		certs:          slices.Clone(certs),
	}, nil
}

// YAML returns c in the form read by NewStaticConfiguration.
func (c *Configuration) YAML() ([]byte, error) {
	cfg := anchorsCfg{
		TrustedListURL: c.trustedListURL,
		Publication:    publicationCfg{ID: c.publicationID, URL: c.publication},
		Certificates:   make([]certCfg, 0, len(c.certs)),
	}
	for _, cert := range c.certs {
		cfg.Certificates = append(cfg.Certificates, certCfg{PEM: cert.PEM(), SHA256: cert.Hash()})
	}
	b, err := yaml.Marshal(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal anchors config: %v", err)
	}
	return b, nil
}

// parseTrustedListURL accepts only absolute https URLs with a host.
func parseTrustedListURL(s string) (*url.URL, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("%q is not an absolute URL", s)
	}
	if u.Scheme != "https" {
		return nil, fmt.Errorf("scheme %q not allowed, want https", u.Scheme)
	}
	return u, nil
}

// TrustedListURI returns the location of the LOTL.
// Each call returns a new *url.URL.
func (c *Configuration) TrustedListURI() *url.URL {
	u := c.trustedListURI
	return &u
}

// TrustedListURL returns the location of the LOTL exactly as configured.
func (c *Configuration) TrustedListURL() string {
	return c.trustedListURL
}

// CurrentlySupportedPublication returns the reference to the Official Journal
// publication the certificates were taken from. It is informational only.
func (c *Configuration) CurrentlySupportedPublication() string {
	return c.publication
}

// PublicationID returns the Official Journal reference of the publication,
// e.g. "2019/C 276/01".
func (c *Configuration) PublicationID() string {
	return c.publicationID
}

// Certificates returns the trust anchors in the order they were published.
func (c *Configuration) Certificates() []PemCertificateWithHash {
	return slices.Clone(c.certs)
}

// All returns an iterator over the trust anchors and their position in the
// published order.
func (c *Configuration) All() iter.Seq2[int, PemCertificateWithHash] {
	return func(yield func(int, PemCertificateWithHash) bool) {
		for i, cert := range c.certs {
			if !yield(i, cert) {
				return
			}
		}
	}
}

// Len returns the number of trust anchors.
func (c *Configuration) Len() int {
	return len(c.certs)
}

// Equal reports whether c and o hold the same data.
func (c *Configuration) Equal(o *Configuration) bool {
	if c == nil || o == nil {
		return c == o
	}
	return c.trustedListURL == o.trustedListURL &&
		c.publicationID == o.publicationID &&
		c.publication == o.publication &&
		slices.Equal(c.certs, o.certs)
}
