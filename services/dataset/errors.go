// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dataset

import "errors"

// Sentinel error kinds for the staging core. Handlers map these to HTTP
// status codes; everything else is treated as internal.
var (
	// ErrNotFound indicates an unknown row ID or column name.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument indicates a malformed or empty required field.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrParse indicates structurally invalid upload input.
	ErrParse = errors.New("parse error")
)
