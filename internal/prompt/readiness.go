package prompt

// IsReady reports whether every distinct token name has a variable with at
// least one value. Names may carry the marker. Zero tokens is ready.
func IsReady(tokenNames []string, vars []Variable) bool {
	return len(Missing(tokenNames, vars)) == 0
}

// Missing returns the distinct token names lacking a non-empty variable, in order.
func Missing(tokenNames []string, vars []Variable) []string {
	filled := make(map[string]bool, len(vars))
	for _, v := range vars {
		if len(v.Values) > 0 {
			filled[v.Name] = true
		}
	}
	var missing []string
	for _, name := range distinctNames(tokenNames) {
		if !filled[name] {
			missing = append(missing, name)
		}
	}
	return missing
}
