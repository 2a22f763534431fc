// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package search provides the best-effort web search collaborator used to
// ground pipeline stages.
//
// Searches never fail the caller: any transport, status or parse problem is
// logged and yields an empty result slice.
package search
