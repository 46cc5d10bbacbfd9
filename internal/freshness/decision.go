package freshness

import (
	"encoding/json"
	"fmt"
)

func getDecisionMapping() []string {
	return []string{"BUILD_REQUIRED", "BUILD_SKIPPABLE"}
}

// Decision is the binary outcome of a freshness resolution. There is no
// third state: every ambiguous or degraded path collapses to BuildRequired.
type Decision int

const (
	BuildRequired Decision = iota
	BuildSkippable
)

func (d Decision) String() string {
	return getDecisionMapping()[int(d)]
}

// MarshalJSON encodes the decision as its string name.
func (d Decision) MarshalJSON() ([]byte, error) {
	return json.Marshal(getDecisionMapping()[d])
}

// UnmarshalJSON decodes a decision from its string name.
func (d *Decision) UnmarshalJSON(data []byte) error {
	var stringInput string
	if err := json.Unmarshal(data, &stringInput); err != nil {
		return err
	}
	for n, str := range getDecisionMapping() {
		if str == stringInput {
			*d = Decision(n)
			return nil
		}
	}
	return fmt.Errorf("invalid freshness decision: %s", stringInput)
}
