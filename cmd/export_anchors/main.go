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

// export_anchors writes the trust anchors as a PEM bundle, for consumers
// which take a plain certificate file.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/eutl-dev/lotlanchors/internal/anchorfile"
	"github.com/eutl-dev/lotlanchors/lotl"
	"k8s.io/klog/v2"
)

var (
	anchorsFile = flag.String("anchors_file", "", "Path to a YAML anchors file to export, or empty for the embedded one")
	outFile     = flag.String("out", "", "File to write the bundle to, or empty for stdout")
	verify      = flag.Bool("verify", true, "Refuse to export if any recorded digest does not match its certificate")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	cfg, err := anchorfile.Load(*anchorsFile)
	if err != nil {
		klog.Exitf("Failed to load anchors: %v", err)
	}

	bundle, err := buildBundle(cfg, *verify)
	if err != nil {
		klog.Exitf("Export failed: %v", err)
	}
	if err := writeBundle(*outFile, os.Stdout, bundle); err != nil {
		klog.Exitf("Export failed: %v", err)
	}
	klog.V(1).Infof("Exported %d anchors", cfg.Len())
}

// buildBundle returns every anchor in cfg, in order, each preceded by a
// comment line giving its index and digest. If verify is set, nothing is
// returned unless every anchor matches its recorded digest.
func buildBundle(cfg *lotl.Configuration, verify bool) ([]byte, error) {
	if verify {
		for i, c := range cfg.All() {
			if err := c.Verify(); err != nil {
				return nil, fmt.Errorf("anchor %d: %w", i, err)
			}
		}
	}
	var b bytes.Buffer
	for i, c := range cfg.All() {
		p := c.PEM()
		if !strings.HasSuffix(p, "\n") {
			p += "\n"
		}
		fmt.Fprintf(&b, "# %d sha256:%s\n%s", i, c.Hash(), p)
	}
	return b.Bytes(), nil
}

// writeBundle writes bundle to stdout if path is empty. Otherwise the bundle
// is written to a temporary file next to path which then replaces it, so path
// never holds a partial bundle.
func writeBundle(path string, stdout io.Writer, bundle []byte) error {
	if path == "" {
		_, err := stdout.Write(bundle)
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %v", err)
	}
	tmp := f.Name()
	defer func() {
		// Only still present if something failed.
		_ = os.Remove(tmp)
	}()
	if _, err := f.Write(bundle); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %q: %v", tmp, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %q: %v", tmp, err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		return fmt.Errorf("failed to chmod %q: %v", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %q: %v", path, err)
	}
	return nil
}
