package llm

// roleTags is the full enumeration of observability tags per role, built at
// init and never mutated afterwards.
var roleTags = map[Role][]string{
	RoleRouter:       {"Router"},
	RoleQA:           {"QA"},
	RoleSQLGenerator: {"SQLGenerator"},
	RoleSynthesizer:  {"ResponseSynthesizer"},
}

// Tags returns the observability tags of a role. The returned slice is a
// copy; callers may not grow the registry at runtime.
func Tags(role Role) []string {
	tags, ok := roleTags[role]
	if !ok {
		return nil
	}
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}
