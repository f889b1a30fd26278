package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/allisson/actiongate/internal/action"
)

// RunListActions prints every registered action with its enablement state,
// version and required permissions in either text or JSON format.
func RunListActions(registry *action.Registry, format string, io IOTuple) error {
	descriptors := registry.All()

	if format == "json" {
		outputListActionsJSON(descriptors, io.Writer)
	} else {
		outputListActionsText(descriptors, io.Writer)
	}

	return nil
}

// outputListActionsText outputs the result in human-readable text format.
func outputListActionsText(descriptors []*action.Descriptor, writer io.Writer) {
	_, _ = fmt.Fprintf(writer, "Registered actions: %d\n\n", len(descriptors))
	for _, descriptor := range descriptors {
		state := "enabled"
		if !descriptor.Enabled {
			state = "disabled"
		}
		permissions := "none"
		if len(descriptor.RequiredPermissions) > 0 {
			permissions = strings.Join(descriptor.RequiredPermissions, ", ")
		}
		_, _ = fmt.Fprintf(
			writer,
			"%s (v%s, %s)\n  permissions: %s\n",
			descriptor.Key,
			descriptor.Version,
			state,
			permissions,
		)
	}
}

// outputListActionsJSON outputs the result in JSON format for machine consumption.
func outputListActionsJSON(descriptors []*action.Descriptor, writer io.Writer) {
	jsonBytes, err := json.MarshalIndent(descriptors, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
}
