// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package reader

import "nickandperla.net/losp/internal/meaning"

// Loc constructs a meaning.Location for the given file at line/column.
func Loc(file string, line, column int) meaning.Location {
	return meaning.Location{File: file, Line: line, Column: column}
}
