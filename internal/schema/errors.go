package schema

import "fmt"

// DefinitionError reports an invalid entity definition.
type DefinitionError struct {
	Entity     string
	Identifier string // field or join name, when the problem is local to one
	Message    string
}

func (e *DefinitionError) Error() string {
	switch {
	case e.Entity != "" && e.Identifier != "":
		return fmt.Sprintf("schema: %s.%s: %s", e.Entity, e.Identifier, e.Message)
	case e.Entity != "":
		return fmt.Sprintf("schema: %s: %s", e.Entity, e.Message)
	default:
		return "schema: " + e.Message
	}
}
