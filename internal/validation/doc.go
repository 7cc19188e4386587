// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

// Package validation wraps go-playground/validator v10 with a thread-safe
// singleton and readable field errors.
//
// It validates race-creation parameters before they are form-encoded and the
// loaded configuration before the client is built:
//
//	type Example struct {
//	    StartDelay int `url:"start_delay" validate:"min=10,max=60"`
//	}
//
//	err := validation.ValidateStruct(&Example{StartDelay: 5})
//	// err.Error() == "start_delay must be at least 10"
package validation
