package token

import (
	"fmt"
	"strings"
)

// IsMandatoryAttribute reports whether the attribute must match exactly
// between issuance and presentation: its name starts with (or equals) the
// reserved token attribute prefix.
func IsMandatoryAttribute(name string) bool {
	return strings.HasPrefix(name, TokenAttribute)
}

// isInfoAttribute reports whether the attribute is informational: its
// namespace prefix is not one of the reserved internal namespaces.
func isInfoAttribute(name string) bool {
	_, reserved := reservedNamespaces[namespacePrefix(name)]
	return !reserved
}

func namespacePrefix(name string) string {
	if idx := strings.IndexByte(name, ':'); idx >= 0 {
		return name[:idx]
	}
	return ""
}

// classifyAttributes partitions record properties into mandatory and public
// attributes. Reserved attributes and properties in internal namespaces are
// discarded.
func classifyAttributes(props map[string]any) (mandatory, public map[string]string) {
	mandatory = make(map[string]string)
	public = make(map[string]string)

	for name, value := range props {
		if isReservedAttribute(name) {
			continue
		}
		str, ok := value.(string)
		if !ok {
			str = fmt.Sprint(value)
		}
		switch {
		case IsMandatoryAttribute(name):
			mandatory[name] = str
		case isInfoAttribute(name):
			public[name] = str
		}
		// else: internal bookkeeping, not exposed
	}
	return mandatory, public
}
