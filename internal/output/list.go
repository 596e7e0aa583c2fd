package output

import (
	"encoding/json"
	"fmt"
	"io"
)

// RenderList prints one value per line.
func RenderList(w io.Writer, values []string) error {
	for _, v := range values {
		if _, err := fmt.Fprintln(w, v); err != nil {
			return err
		}
	}
	return nil
}

// RenderListJSON prints values as a JSON array. A nil slice prints [].
func RenderListJSON(w io.Writer, values []string) error {
	if values == nil {
		values = []string{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(values)
}
