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

package prometheus

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	mf := MetricFactory{Prefix: "test_", Registerer: reg}

	single := mf.NewCounter("single", "help")
	single.Inc()
	single.Inc()
	if got, want := testutil.ToFloat64(single.(*Counter).single), 2.0; got != want {
		t.Errorf("single counter = %v, want %v", got, want)
	}

	vec := mf.NewCounter("vec", "help", "status")
	vec.Inc("ok")
	vec.Inc("ok", "extra")
	if got, want := testutil.ToFloat64(vec.(*Counter).vec.WithLabelValues("ok")), 1.0; got != want {
		t.Errorf("vec counter = %v, want %v", got, want)
	}

	if n, err := testutil.GatherAndCount(reg, "test_single", "test_vec"); err != nil || n != 2 {
		t.Errorf("GatherAndCount = %d, %v; want 2, nil", n, err)
	}
}
