package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/allisson/phivault/internal/policy"
)

// RunShowPolicy prints the active field encryption policy: every governed
// field grouped by entity kind with its encryption algorithm. Fields absent
// from the output are stored as plaintext.
func RunShowPolicy(fieldPolicy *policy.FieldPolicy, writer io.Writer) error {
	entityKinds := fieldPolicy.EntityKinds()
	sort.Strings(entityKinds)

	if len(entityKinds) == 0 {
		fmt.Fprintln(writer, "No governed fields: every field is stored as plaintext")
		return nil
	}

	for _, entityKind := range entityKinds {
		fmt.Fprintf(writer, "%s:\n", entityKind)

		fields := fieldPolicy.Fields(entityKind)
		fieldNames := make([]string, 0, len(fields))
		for name := range fields {
			fieldNames = append(fieldNames, name)
		}
		sort.Strings(fieldNames)

		for _, name := range fieldNames {
			fmt.Fprintf(writer, "  %-20s %s\n", name, fields[name])
		}
	}
	return nil
}
