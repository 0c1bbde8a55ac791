// Copyright (c) 2025-2026 The npubsearch developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package lookup implements the prebuilt pattern index candidates are
// screened through: pattern normalization and validation, a 65536-entry
// first level keyed by the 16-bit leading fingerprint, an ascending 32-bit
// secondary level for patterns long enough to pin a full word, and a linear
// list with restricted glob evaluation for everything else.  The index is
// built once and queried read-only; only the per-pattern found flags change
// afterwards, and those only transition false to true.
package lookup
