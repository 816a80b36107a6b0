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

// Package integrity checks that the recorded digests of a trust anchor
// configuration match the certificates they belong to.
//
// This runs in tests and in the check_anchors tool, never on the path which
// builds a configuration.
package integrity

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/eutl-dev/lotlanchors/internal/anchor"
	"github.com/eutl-dev/lotlanchors/lotl"
	"github.com/eutl-dev/lotlanchors/monitoring"
	"k8s.io/klog/v2"
)

var (
	doOnce              sync.Once
	counterAnchorsCheck monitoring.Counter
)

func initMetrics() {
	doOnce.Do(func() {
		mf := monitoring.GetMetricFactory()
		counterAnchorsCheck = mf.NewCounter("anchor_checks", "Trust anchor integrity checks by outcome", "status")
	})
}

// Result statuses, also used as metric labels.
const (
	StatusOK       = "ok"
	StatusMismatch = "mismatch"
	StatusInvalid  = "invalid"
	StatusExpired  = "expired"
)

// Result is the outcome of checking one anchor.
type Result struct {
	Index  int
	Status string
	Err    error
	// Info is only set if the certificate could be parsed.
	Info *anchor.Info
}

// Report is the outcome of checking a whole configuration.
type Report struct {
	Results []Result
	// Want is the expected number of anchors, or 0 if not checked.
	Want int
}

// Opts controls which checks are performed.
type Opts struct {
	// WantCount, if non-zero, is the number of anchors the configuration
	// must hold.
	WantCount int
	// At, if set, is the time at which every anchor must be valid.
	At time.Time
}

// Check verifies every anchor in cfg.
func Check(cfg *lotl.Configuration, opts Opts) Report {
	initMetrics()
	r := Report{Want: opts.WantCount}
	for i, c := range cfg.All() {
		res := checkOne(i, c, opts.At)
		counterAnchorsCheck.Inc(res.Status)
		if res.Err != nil {
			klog.V(1).Infof("anchor %d: %s: %v", i, res.Status, res.Err)
		}
		r.Results = append(r.Results, res)
	}
	return r
}

func checkOne(i int, c lotl.PemCertificateWithHash, at time.Time) Result {
	res := Result{Index: i, Status: StatusOK}
	if err := c.Verify(); err != nil {
		res.Err = err
		if errors.Is(err, lotl.ErrHashMismatch) {
			res.Status = StatusMismatch
		} else {
			res.Status = StatusInvalid
			return res
		}
	}
	info, err := anchor.Describe(i, c)
	if err != nil {
		res.Status, res.Err = StatusInvalid, err
		return res
	}
	res.Info = &info
	if res.Err == nil && !at.IsZero() && !info.ValidAt(at) {
		res.Status = StatusExpired
		res.Err = fmt.Errorf("not valid at %s (valid %s to %s)", at.UTC().Format(time.RFC3339), info.NotBefore.Format(time.RFC3339), info.NotAfter.Format(time.RFC3339))
	}
	return res
}

// Err returns an error describing every failed check, or nil if all passed.
func (r Report) Err() error {
	var errs []error
	if r.Want > 0 && len(r.Results) != r.Want {
		errs = append(errs, fmt.Errorf("got %d anchors, want %d", len(r.Results), r.Want))
	}
	for _, res := range r.Results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("anchor %d (%s): %w", res.Index, res.Status, res.Err))
		}
	}
	return errors.Join(errs...)
}
