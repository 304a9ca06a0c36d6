package toolexecutor

// ToolPolicy narrows which tools a caller may use on top of security levels.
// Deny entries override allow entries. A nil policy allows everything the
// caller's level permits.
type ToolPolicy struct {
	Allow           []string       `json:"allow"`            // tool names, * for all
	Deny            []string       `json:"deny"`             // tool names, * for all
	AllowCategories []ToolCategory `json:"allow_categories"` // empty means any category
	DenyCategories  []ToolCategory `json:"deny_categories"`
}

// IsToolAllowed checks if a tool is allowed by the policy
func (tp *ToolPolicy) IsToolAllowed(def ToolDefinition) bool {
	if tp == nil {
		return true
	}

	// Check deny lists first (deny overrides allow)
	for _, denied := range tp.Deny {
		if denied == def.Name || denied == "*" {
			return false
		}
	}
	for _, denyCat := range tp.DenyCategories {
		if def.Category == denyCat {
			return false
		}
	}

	if len(tp.AllowCategories) > 0 && !containsCategory(tp.AllowCategories, def.Category) {
		return false
	}

	// No name allow list means any tool that passed the category rules
	if len(tp.Allow) == 0 {
		return true
	}
	for _, allowed := range tp.Allow {
		if allowed == def.Name || allowed == "*" {
			return true
		}
	}

	return false
}

// Merge combines two policies: deny lists are unioned, allow lists intersected
func (tp *ToolPolicy) Merge(other *ToolPolicy) *ToolPolicy {
	if tp == nil {
		return other
	}
	if other == nil {
		return tp
	}

	merged := &ToolPolicy{
		Deny:           unionStrings(tp.Deny, other.Deny),
		DenyCategories: append(append([]ToolCategory{}, tp.DenyCategories...), other.DenyCategories...),
	}

	switch {
	case len(tp.Allow) == 0:
		merged.Allow = append([]string(nil), other.Allow...)
	case len(other.Allow) == 0:
		merged.Allow = append([]string(nil), tp.Allow...)
	default:
		merged.Allow = intersectStrings(tp.Allow, other.Allow)
		if len(merged.Allow) == 0 {
			// nothing survives the intersection
			merged.Deny = append(merged.Deny, "*")
		}
	}

	switch {
	case len(tp.AllowCategories) == 0:
		merged.AllowCategories = append([]ToolCategory(nil), other.AllowCategories...)
	case len(other.AllowCategories) == 0:
		merged.AllowCategories = append([]ToolCategory(nil), tp.AllowCategories...)
	default:
		for _, cat := range tp.AllowCategories {
			if containsCategory(other.AllowCategories, cat) {
				merged.AllowCategories = append(merged.AllowCategories, cat)
			}
		}
		if len(merged.AllowCategories) == 0 {
			merged.Deny = append(merged.Deny, "*")
		}
	}

	return merged
}

func containsCategory(categories []ToolCategory, category ToolCategory) bool {
	for _, cat := range categories {
		if cat == category {
			return true
		}
	}
	return false
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, s := range append(append([]string{}, a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func intersectStrings(a, b []string) []string {
	set := make(map[string]bool)
	wildcard := false
	for _, s := range b {
		set[s] = true
		if s == "*" {
			wildcard = true
		}
	}

	out := []string{}
	for _, s := range a {
		switch {
		case s == "*":
			out = append(out, b...)
		case wildcard || set[s]:
			out = append(out, s)
		}
	}
	return unionStrings(out, nil)
}
