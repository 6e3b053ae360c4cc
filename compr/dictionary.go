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

package compr

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Dictionary is a reusable zstd compressor/decompressor pair keyed
// off a fixed dictionary, used to compress per-row sequence data
// against a shared reference genome. Sequences diverge from their
// reference at only a handful of positions, so compressing against
// the reference as a zstd dictionary rather than compressing each
// row independently yields much better ratios on short sequences.
//
// A Dictionary is safe for concurrent use; Compress and Decompress
// may both be called from multiple goroutines simultaneously, same
// as the global codecs in Compression/Decompression.
type Dictionary struct {
	mu  sync.Mutex
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewDictionary builds a Dictionary that compresses against ref
// (typically a reference genome's nucleotide or amino-acid
// sequence, taken verbatim as the zstd dictionary content).
func NewDictionary(ref []byte) (*Dictionary, error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderDict(ref),
		zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("compr: building dictionary encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderDicts(ref),
		zstd.WithDecoderConcurrency(runtime.GOMAXPROCS(0)))
	if err != nil {
		return nil, fmt.Errorf("compr: building dictionary decoder: %w", err)
	}
	return &Dictionary{enc: enc, dec: dec}, nil
}

// Compress appends the zstd-compressed form of src to dst and
// returns the extended slice, compressing against the reference
// dictionary d was built with.
//
// The encoder held by d is not safe for concurrent EncodeAll calls,
// so Compress serializes access; callers that need parallelism
// should use one Dictionary per worker or shard across partitions,
// mirroring how the per-partition vertical index build is sharded.
func (d *Dictionary) Compress(src, dst []byte) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enc.EncodeAll(src, dst)
}

// Decompress decompresses src (produced by Compress on a Dictionary
// built from the same reference) into a fresh buffer.
func (d *Dictionary) Decompress(src []byte) ([]byte, error) {
	return d.dec.DecodeAll(src, nil)
}

// Close releases the encoder's background resources. A Dictionary
// must not be used after Close.
func (d *Dictionary) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enc.Close()
	return d.dec.Close()
}
