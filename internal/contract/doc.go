// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package contract validates the shape of an IPC request before the
// daemon acts on it: the combined size of its string-list fields
// (targets, files, entries, args, roots) against a soft payload limit,
// and individual identifier fields (a ping nonce, a dev-server address)
// against a max length. Neither check replaces internal/daemon's hard
// per-frame byte cap in ipc.go; this package catches an oversized or
// malformed request before it reaches a handler, not a corrupt wire
// frame.
//
// # Payload Limits
//
//	limit := contract.MaxPayloadBytes()
//	result := contract.ValidateStringList("targets", req.Targets)
//	if !result.OK {
//	    return errResponse(req.Kind, hello, howtherrors.Validation(
//	        howtherrors.CodeFrameTooLarge, result.Message, ""))
//	}
//
// # Configuration via Environment
//
// The payload limit can be adjusted via the HOWTH_MAX_PAYLOAD_BYTES
// environment variable:
//
//	export HOWTH_MAX_PAYLOAD_BYTES=33554432  # 32 MiB
//
// If unset or invalid, DefaultMaxPayloadBytes (64 MiB) applies.
package contract
