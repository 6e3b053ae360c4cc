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

package action

import "github.com/GenSpectrum/silo-go/bitmap"

// DefaultBatchSize is the row-id batch size an action uses when it
// does not configure its own.
const DefaultBatchSize = 1024

// BatchedBitmapReader yields a matched bitmap's row ids in ascending
// batches of at most batchSize, the streaming contract §4.7 describes
// between a compiled operator's result and an action's producer.
type BatchedBitmapReader struct {
	it        bitmap.Iterator
	batchSize int
	buf       []uint32
}

// NewBatchedBitmapReader returns a reader over rows, batching at most
// batchSize row ids per call to Next.
func NewBatchedBitmapReader(rows bitmap.COW, batchSize int) *BatchedBitmapReader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &BatchedBitmapReader{
		it:        rows.Iterator(),
		batchSize: batchSize,
		buf:       make([]uint32, batchSize),
	}
}

// Next fills and returns the next batch (reused across calls; callers
// must finish with a batch before calling Next again), or returns
// ok=false once every row has been yielded.
func (r *BatchedBitmapReader) Next() (batch []uint32, ok bool) {
	n := 0
	for n < r.batchSize && r.it.HasNext() {
		r.buf[n] = r.it.Next()
		n++
	}
	if n == 0 {
		return nil, false
	}
	return r.buf[:n], true
}
