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

import (
	"strings"
	"sync"

	"k8s.io/klog/v2"
)

// InertMetricFactory creates counters which are never exported. It is the
// default factory, and lets tests read back what was counted.
type InertMetricFactory struct{}

// NewCounter creates a new InertCounter with the given label names.
func (InertMetricFactory) NewCounter(name, help string, labelNames ...string) Counter {
	return &InertCounter{
		name:   name,
		labels: len(labelNames),
		vals:   make(map[string]uint64),
	}
}

// InertCounter keeps one count per distinct set of label values.
// Calls with the wrong number of label values are logged and dropped.
type InertCounter struct {
	name   string
	labels int

	mu   sync.Mutex
	vals map[string]uint64
}

// Inc adds 1 to the count for labelVals.
func (m *InertCounter) Inc(labelVals ...string) {
	key, ok := m.key(labelVals)
	if !ok {
		return
	}
	m.mu.Lock()
	m.vals[key]++
	m.mu.Unlock()
}

// Value returns the count for labelVals.
func (m *InertCounter) Value(labelVals ...string) uint64 {
	key, ok := m.key(labelVals)
	if !ok {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vals[key]
}

// key maps label values to a map key. Values are NUL separated since label
// values never contain NUL.
func (m *InertCounter) key(labelVals []string) (string, bool) {
	if len(labelVals) != m.labels {
		klog.Errorf("counter %q: got %d label values, want %d", m.name, len(labelVals), m.labels)
		return "", false
	}
	return strings.Join(labelVals, "\x00"), true
}
