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

package monitoring

import "testing"

func TestInertCounter(t *testing.T) {
	c := InertMetricFactory{}.NewCounter("requests", "help", "path", "status").(*InertCounter)
	c.Inc("/a", "200")
	c.Inc("/a", "200")
	c.Inc("/b", "404")
	c.Inc("wrong label count")

	for _, test := range []struct {
		labels []string
		want   uint64
	}{
		{labels: []string{"/a", "200"}, want: 2},
		{labels: []string{"/b", "404"}, want: 1},
		{labels: []string{"/c", "200"}, want: 0},
		{labels: []string{"wrong label count"}, want: 0},
	} {
		if got := c.Value(test.labels...); got != test.want {
			t.Errorf("Value(%v) = %d, want %d", test.labels, got, test.want)
		}
	}
}

func TestInertCounterLabelsDoNotCollide(t *testing.T) {
	c := InertMetricFactory{}.NewCounter("requests", "help", "a", "b").(*InertCounter)
	c.Inc("x|y", "z")
	if got := c.Value("x", "y|z"); got != 0 {
		t.Errorf("Value(x, y|z) = %d, want 0", got)
	}
	if got := c.Value("x|y", "z"); got != 1 {
		t.Errorf("Value(x|y, z) = %d, want 1", got)
	}
}

func TestGetMetricFactoryDefaultsToInert(t *testing.T) {
	if _, ok := GetMetricFactory().(InertMetricFactory); !ok {
		t.Fatalf("GetMetricFactory() = %T, want InertMetricFactory", GetMetricFactory())
	}
	SetMetricFactory(otherFactory{})
	if _, ok := GetMetricFactory().(InertMetricFactory); !ok {
		t.Errorf("SetMetricFactory replaced an installed factory")
	}
}

type otherFactory struct{ InertMetricFactory }
