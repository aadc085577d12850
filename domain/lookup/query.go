package lookup

import "strings"

// Placeholder is the token substituted with each entity's text
const Placeholder = "{entity}"

// DefaultTemplate is used when the caller supplies none
const DefaultTemplate = "What is " + Placeholder

// BuildQuery replaces every occurrence of Placeholder in template with the
// entity's text. A template without the placeholder is returned unchanged.
func BuildQuery(template string, entity Entity) string {
	return strings.ReplaceAll(template, Placeholder, entity.String())
}

// HasPlaceholder reports whether template would vary per entity
func HasPlaceholder(template string) bool {
	return strings.Contains(template, Placeholder)
}
