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

// Package anchorfile loads trust anchor configurations for the command line
// tools.
package anchorfile

import (
	"fmt"
	"os"

	"github.com/eutl-dev/lotlanchors/lotl"
	"k8s.io/klog/v2"
)

// Load returns the configuration in the YAML file at path, or the embedded
// configuration if path is empty.
func Load(path string) (*lotl.Configuration, error) {
	if path == "" {
		return lotl.New()
	}
	klog.V(1).Infof("Loading anchors from %q", path)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read anchors file: %w", err)
	}
	cfg, err := lotl.NewStaticConfiguration(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
