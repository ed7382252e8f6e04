// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides caller identity and id generation.

# Caller Identity

Requests are authenticated upstream; the user id arrives in the X-User-ID
header:

	userID, err := auth.UserIDFromRequest(r)
	if err != nil {
		// 401
	}

The header must hold a UUID. A missing header yields ErrMissingUser, a
malformed one ErrInvalidUser.

# ID Generation

Random UUIDs for database records:

	id := auth.GenerateID()
*/
package auth
