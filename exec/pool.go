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

// Package exec implements the partitioned executor (C9): a
// fixed-size worker pool runs one compiled filter plus action per
// partition, and a coordinator reduces the partial results.
package exec

// pool is a fixed-size goroutine work queue: a buffered channel of
// closures drained by a fixed number of long-lived goroutines.
// Closing the pool stops them.
type pool chan func()

func newPool(parallel int) pool {
	if parallel <= 0 {
		parallel = 1
	}
	p := make(pool, parallel)
	for i := 0; i < parallel; i++ {
		go func() {
			for f := range p {
				f()
			}
		}()
	}
	return p
}

func (p pool) submit(f func()) { p <- f }
func (p pool) close()          { close(p) }
