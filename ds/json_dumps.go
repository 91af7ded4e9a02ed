package ds

import (
	"encoding/json"
	"fmt"
)

// DumpJSON renders any value as a JSON string for error messages and
// diagnostics output. Marshalling failures are folded into the string so the
// caller never has to branch.
func DumpJSON[T any](t T) string {
	tBytes, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("DumpJSON error %w", err).Error()
	}

	return string(tBytes)
}
