// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plan

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAborted is returned (wrapping the context error) when a run is
// cancelled.
var ErrAborted = errors.New("pipeline aborted")

// AllStagesFailedError means every content stage (1-4) failed.
type AllStagesFailedError struct {
	Stages   []int
	Outcomes []StageOutcome
}

func (e *AllStagesFailedError) Error() string {
	parts := make([]string, 0, len(e.Outcomes))
	for _, o := range e.Outcomes {
		name := fmt.Sprintf("stage %d", o.StageID)
		if s, err := StageByID(o.StageID); err == nil {
			name = fmt.Sprintf("stage %d (%s)", o.StageID, s.Name)
		}
		parts = append(parts, name+": "+o.FailureSummary())
	}
	return "all content stages failed: " + strings.Join(parts, " | ")
}
