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

// import_anchors builds an anchors YAML file from PEM certificates, computing
// the SHA-256 digest of each one. Certificates are kept in the order they
// appear in the input files, which must be the order of the publication.
package main

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/eutl-dev/lotlanchors/lotl"
	"k8s.io/klog/v2"
)

var (
	trustedListURL = flag.String("trusted_list_url", lotl.DefaultTrustedListURL, "Location of the trusted list the certificates sign")
	publicationID  = flag.String("publication_id", lotl.DefaultPublicationID, "Official Journal reference of the publication")
	publicationURL = flag.String("publication_url", lotl.DefaultCurrentlySupportedPublication, "URL of the publication")
	wantCount      = flag.Int("want_count", 8, "Number of certificates the input must contain, or zero to skip this check")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	var in []byte
	if flag.NArg() == 0 {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			klog.Exitf("Failed to read stdin: %v", err)
		}
		in = b
	}
	for _, f := range flag.Args() {
		b, err := os.ReadFile(f)
		if err != nil {
			klog.Exitf("Failed to read %q: %v", f, err)
		}
		in = append(in, b...)
		in = append(in, '\n')
	}

	certs, err := parseCertificates(in)
	if err != nil {
		klog.Exitf("Invalid input: %v", err)
	}
	if *wantCount > 0 && len(certs) != *wantCount {
		klog.Exitf("Got %d certificates, want %d", len(certs), *wantCount)
	}
	cfg, err := lotl.NewConfiguration(*trustedListURL, *publicationID, *publicationURL, certs)
	if err != nil {
		klog.Exitf("Invalid configuration: %v", err)
	}
	out, err := cfg.YAML()
	if err != nil {
		klog.Exitf("%v", err)
	}
	if _, err := os.Stdout.Write(out); err != nil {
		klog.Exitf("Failed to write output: %v", err)
	}
}

// parseCertificates returns every CERTIFICATE block in in, re-encoded as
// plain PEM with its digest. Blocks of other types are rejected, as are
// certificates which do not parse or appear twice.
func parseCertificates(in []byte) ([]lotl.PemCertificateWithHash, error) {
	var certs []lotl.PemCertificateWithHash
	seen := make(map[string]int)
	rest := in
	for {
		var b *pem.Block
		b, rest = pem.Decode(rest)
		if b == nil {
			break
		}
		i := len(certs)
		if b.Type != "CERTIFICATE" {
			return nil, fmt.Errorf("block %d: unexpected PEM type %q", i, b.Type)
		}
		if _, err := x509.ParseCertificate(b.Bytes); err != nil {
			return nil, fmt.Errorf("block %d: %v", i, err)
		}
		p := string(pem.EncodeToMemory(&pem.Block{Type: b.Type, Bytes: b.Bytes}))
		h, err := lotl.NewPemCertificateWithHash(p, "").ComputeHash()
		if err != nil {
			return nil, fmt.Errorf("block %d: %v", i, err)
		}
		if j, ok := seen[h]; ok {
			return nil, fmt.Errorf("block %d: duplicate of block %d", i, j)
		}
		seen[h] = i
		certs = append(certs, lotl.NewPemCertificateWithHash(p, h))
	}
	if len(certs) == 0 {
		return nil, fmt.Errorf("no certificates found")
	}
	if len(bytes.TrimSpace(rest)) != 0 {
		return nil, fmt.Errorf("trailing data after block %d", len(certs)-1)
	}
	return certs, nil
}
