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

// check_anchors verifies that every recorded digest in a trust anchor file
// matches its certificate. It is intended to be run whenever the anchors are
// edited, and exits non-zero if any check fails.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/eutl-dev/lotlanchors/internal/anchorfile"
	"github.com/eutl-dev/lotlanchors/internal/integrity"
	"k8s.io/klog/v2"
)

var (
	anchorsFile = flag.String("anchors_file", "", "Path to a YAML anchors file to check, or empty for the embedded one")
	wantCount   = flag.Int("want_count", 8, "Number of anchors the file must contain, or zero to skip this check")
	at          = flag.String("at", "", "Optional RFC 3339 time at which every anchor must be valid, or \"now\"")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	cfg, err := anchorfile.Load(*anchorsFile)
	if err != nil {
		klog.Exitf("Failed to load anchors: %v", err)
	}
	opts, err := checkOpts(*wantCount, *at, time.Now)
	if err != nil {
		klog.Exitf("Invalid flags: %v", err)
	}

	r := integrity.Check(cfg, opts)
	fmt.Printf("%s (%s)\n", cfg.TrustedListURL(), cfg.PublicationID())
	printReport(os.Stdout, r)
	if err := r.Err(); err != nil {
		klog.Exitf("Check failed:\n%v", err)
	}
}

// checkOpts converts the command line flags into integrity.Opts.
func checkOpts(wantCount int, at string, now func() time.Time) (integrity.Opts, error) {
	if wantCount < 0 {
		return integrity.Opts{}, fmt.Errorf("--want_count must not be negative, got %d", wantCount)
	}
	opts := integrity.Opts{WantCount: wantCount}
	switch at {
	case "":
	case "now":
		opts.At = now()
	default:
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return integrity.Opts{}, fmt.Errorf("--at: %v", err)
		}
		opts.At = t
	}
	return opts, nil
}

// printReport writes one row per anchor. Anchors which could not be parsed
// are shown with "-" for the certificate columns.
func printReport(w io.Writer, r integrity.Report) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSTATUS\tSUBJECT\tNOT AFTER")
	for _, res := range r.Results {
		subject, notAfter := "-", "-"
		if res.Info != nil {
			subject = res.Info.Subject
			notAfter = res.Info.NotAfter.Format(time.DateOnly)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", res.Index, res.Status, subject, notAfter)
	}
	_ = tw.Flush()
}
