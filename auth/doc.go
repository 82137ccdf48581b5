// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides the admin key and small token utilities.

# Admin Key

Destructive operations (import, restore, clear all) require the admin key, an
HMAC-SHA256 of AdminScope under ADMIN_KEY_SALT:

	key := auth.GenerateAdminKey(auth.AdminScope, salt)
	err := auth.ValidateAdminKey(auth.AdminScope, key, salt)

The key is URL-safe base64 without padding. `comidas admin-key` prints it.

# IDs and IP hashing

	id, err := auth.GenerateID(8)       // request ids in logs
	hash := auth.HashIP(ipAddress, salt) // proxy logs never carry raw IPs
*/
package auth
