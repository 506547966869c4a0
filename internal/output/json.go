package output

import (
	"encoding/json"
	"fmt"
	"time"
)

// JSONOutput represents the complete JSON output structure.
type JSONOutput struct {
	GeneratedAt string `json:"generated_at"`
	Data        any    `json:"data"`
}

// PrintJSON wraps data with a generation timestamp and prints it as indented JSON to stdout.
func PrintJSON(data any) error {
	output := JSONOutput{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Data:        data,
	}

	out, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}

	fmt.Println(string(out))
	return nil
}
