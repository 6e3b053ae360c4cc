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

package snapshot

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"

	"github.com/GenSpectrum/silo-go/siloerr"
)

// digestFile returns the hex BLAKE2b-256 digest of the file at path,
// streamed through a hash.Hash rather than buffered whole so large
// column files don't need to fit in memory to be verified.
func digestFile(path string) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", fmt.Errorf("snapshot: building digest: %w", err)
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("snapshot: digesting %s: %w", path, err)
	}
	defer f.Close()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("snapshot: digesting %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// verifyDigest recomputes path's digest and compares it against want,
// returning a LoadDatabaseError on mismatch so a corrupted or
// truncated snapshot is rejected before any column is deserialized
// from it.
func verifyDigest(path, want string) error {
	got, err := digestFile(path)
	if err != nil {
		return siloerr.Wrap(siloerr.LoadDatabaseError, err)
	}
	if got != want {
		return siloerr.New(siloerr.LoadDatabaseError,
			"snapshot: digest mismatch for %s: got %s, want %s", path, got, want)
	}
	return nil
}
