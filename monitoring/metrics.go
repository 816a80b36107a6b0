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

// Package monitoring contains interfaces and bindings for collecting metrics
// about the trust anchor tooling and server.
package monitoring

import "sync"

var (
	mu sync.RWMutex
	mf MetricFactory
)

// SetMetricFactory sets the MetricFactory used throughout the application.
// Only the first call to this method has any effect, and it must be made
// before any metrics are created.
func SetMetricFactory(imf MetricFactory) {
	if imf == nil {
		panic("MetricFactory cannot be nil")
	}
	mu.Lock()
	defer mu.Unlock()
	if mf == nil {
		mf = imf
	}
}

// GetMetricFactory returns the MetricFactory for this application.
// If none has been set, an InertMetricFactory is installed and returned, so
// library code and tests can create metrics without a main.
func GetMetricFactory() MetricFactory {
	mu.RLock()
	f := mf
	mu.RUnlock()
	if f != nil {
		return f
	}
	SetMetricFactory(InertMetricFactory{})
	mu.RLock()
	defer mu.RUnlock()
	return mf
}

// MetricFactory allows the creation of different types of metric.
type MetricFactory interface {
	NewCounter(name, help string, labelNames ...string) Counter
}

// Counter is a metric class for numeric values that increase.
type Counter interface {
	Inc(labelVals ...string)
}
