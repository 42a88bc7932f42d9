package cli

import (
	"fmt"
	"io"

	json "github.com/goccy/go-json"

	"github.com/vinv-group/vinv-go/pkg/types"
)

// printJSON writes v as indented JSON followed by a newline.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysErrorf("marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// printIssues lists validation issues one per line, indented under a
// heading line printed by the caller.
func printIssues(w io.Writer, err error) {
	iss, ok := types.AsIssues(err)
	if !ok {
		return
	}
	for _, i := range iss {
		fmt.Fprintf(w, "  %s\n", i)
	}
}
