package prompt

import "strings"

// Build expands prompt into every combination of the bound values.
//
// Variables are applied in slice order; for each one every existing partial
// string is combined with every value (partials outer, values inner) by
// replacing all occurrences of "$name". Variables without values are skipped.
// No variables, or an empty prompt, yields an empty result rather than
// [prompt]. Substitution is sequential, so a value containing a later
// variable's token is itself substituted.
func Build(prompt string, vars []Variable) []string {
	if prompt == "" || len(vars) == 0 {
		return []string{}
	}

	var acc []string
	for _, v := range vars {
		if len(v.Values) == 0 {
			continue
		}
		if acc == nil {
			acc = []string{prompt}
		}
		token := Marker + v.Name
		next := make([]string, 0, len(acc)*len(v.Values))
		for _, partial := range acc {
			for _, val := range v.Values {
				next = append(next, strings.ReplaceAll(partial, token, val))
			}
		}
		acc = next
	}

	if acc == nil {
		return []string{}
	}
	return acc
}

// ExpansionSize is the number of strings Build would return for vars,
// without building them. Zero when no variable has values.
func ExpansionSize(vars []Variable) int {
	size := 0
	for _, v := range vars {
		if len(v.Values) == 0 {
			continue
		}
		if size == 0 {
			size = 1
		}
		size *= len(v.Values)
	}
	return size
}
