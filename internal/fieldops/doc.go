// Copyright (c) 2025-2026 The npubsearch developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fieldops provides the handful of secp256k1 field operations the
// group engine needs on top of the arithmetic already exported by
// dcrec/secp256k1: fully-normalized add/sub/neg helpers and a grouped
// modular inverse that amortizes a single true field inversion across an
// entire batch of elements.
package fieldops
