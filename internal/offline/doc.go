// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package offline decides which provider endpoints may be called when
// planforge runs without network access.
//
// In offline mode only loopback endpoints are admitted, so an ollama-style
// provider pointed at a remote host does not count as local. The scheme
// check applies in both modes.
//
// # Usage
//
//	if err := offline.ValidateEndpoint(baseURL, cfg.OfflineMode); err != nil {
//		return err
//	}
package offline
