// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the planforge command line.
//
// Commands:
//
//	planforge generate   Run the five-stage pipeline for one idea
//	planforge drafts     Propose ideas for a topic, optionally plan them all
//	planforge presets    List fallback chains and provider availability
//	planforge timings    Show learned stage durations
//	planforge sanitize   Clean up a markdown document
//	planforge config     Write or show the configuration file
//
// Global flags are --config, --verbose, --debug and --json. Every flag can
// also be set through a PLANFORGE_ environment variable.
package cli
