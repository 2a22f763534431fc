// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package document turns independent stage outputs into one ordered,
// well-formed markdown document.
//
// Three pieces cooperate:
//
//   - SectionMatcher finds a numbered section's heading in free-form text and
//     slices its content up to the next heading of the same or higher level.
//   - Combiner pulls each section from the stage that owns it and emits them
//     in canonical order, falling back to plain concatenation when too few
//     sections can be found.
//   - Sanitize repairs the markdown artifacts models commonly produce.
//
// None of these can fail: malformed input degrades to a less structured
// document, never to an error.
package document
