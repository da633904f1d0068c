package llm

import (
	"encoding/json"
	"fmt"
)

// SystemPrompt constrains the selector to adjudication only
const SystemPrompt = "You label parts of automotive requirement sentences. You only choose among the candidate spans you are given; you never write new text."

// BuildPrompt renders the user prompt for a request. Output is deterministic
// for a given request, so it doubles as the cache key material.
func BuildPrompt(req SelectRequest) (string, error) {
	payload, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	return fmt.Sprintf(`Each slot below lists literal candidate spans found in the requirement.
For every slot, pick the span (or spans) that really express that slot's role,
or answer "NONE" if no candidate does.

Slot roles:
- Why: purpose or hazard being addressed
- Anchor: the component or system the requirement is about
- What: the required action
- HowType: the safety mechanism type (detection, mitigation, transition, ...)
- When: the triggering condition or operating state
- Constraints: numeric bounds, timing, ranges
- Verification: how the requirement is verified
- AcceptanceCriteria: pass/fail criteria

RULES:
1. Copy spans exactly from the candidate lists. Do not paraphrase.
2. Only answer for slots present in candidates_by_slot.
3. Reply with a single JSON object: {"<Slot>": "<span>" | ["<span>", ...] | "NONE"}.

Input:
%s
`, payload), nil
}
