// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package config

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// Runtime is the server's runtime config: where to listen, which
// snapshot directory to load at startup, and how big a worker pool
// exec.Coordinator should use.
type Runtime struct {
	ListenAddr string `json:"listenAddr"`
	SnapshotDir string `json:"snapshotDir"`
	// WorkerPoolSize is exec.Coordinator.Parallel; zero means
	// runtime.NumCPU().
	WorkerPoolSize int `json:"workerPoolSize,omitempty"`
}

// DefaultRuntime returns the config used when no runtime config file
// is given on the command line.
func DefaultRuntime() *Runtime {
	return &Runtime{ListenAddr: ":8080"}
}

// LoadRuntime reads and parses a runtime config file.
func LoadRuntime(path string) (*Runtime, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading runtime config %s: %w", path, err)
	}
	r := DefaultRuntime()
	if err := yaml.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("config: decoding runtime config %s: %w", path, err)
	}
	if r.SnapshotDir == "" {
		return nil, fmt.Errorf("config: %s: snapshotDir is required", path)
	}
	return r, nil
}
