package toolexecutor

import (
	"fmt"
	"strings"
)

// ToolCategory represents a category of tools
type ToolCategory string

const (
	CategoryRead          ToolCategory = "read"
	CategoryWrite         ToolCategory = "write"
	CategoryShell         ToolCategory = "shell"
	CategoryWeb           ToolCategory = "web"
	CategoryData          ToolCategory = "data"
	CategoryCommunication ToolCategory = "communication"
	CategoryGeneral       ToolCategory = "general"
)

// AllCategories returns all valid tool categories
func AllCategories() []ToolCategory {
	return []ToolCategory{
		CategoryRead,
		CategoryWrite,
		CategoryShell,
		CategoryWeb,
		CategoryData,
		CategoryCommunication,
		CategoryGeneral,
	}
}

// IsValidCategory checks if a category is valid
func IsValidCategory(category string) bool {
	_, err := ParseCategory(category)
	return err == nil
}

// ParseCategory normalizes a category name. Lookup is case-insensitive.
func ParseCategory(category string) (ToolCategory, error) {
	cat := ToolCategory(strings.ToLower(strings.TrimSpace(category)))
	for _, valid := range AllCategories() {
		if cat == valid {
			return cat, nil
		}
	}
	return "", fmt.Errorf("invalid category: %s", category)
}

// FilterByCategory returns the definitions in a specific category
func FilterByCategory(defs []ToolDefinition, category ToolCategory) []ToolDefinition {
	filtered := []ToolDefinition{}
	for _, def := range defs {
		if def.Category == category {
			filtered = append(filtered, def)
		}
	}
	return filtered
}

// FilterByCategories returns the definitions in any of the specified categories
func FilterByCategories(defs []ToolDefinition, categories []ToolCategory) []ToolDefinition {
	categorySet := make(map[ToolCategory]bool)
	for _, cat := range categories {
		categorySet[cat] = true
	}

	filtered := []ToolDefinition{}
	for _, def := range defs {
		if categorySet[def.Category] {
			filtered = append(filtered, def)
		}
	}
	return filtered
}
