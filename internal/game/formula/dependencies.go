package formula

import "regexp"

var customVariablePattern = regexp.MustCompile(`@customVariable\.([a-zA-Z_][a-zA-Z0-9_.]*)`)

// CustomVariableDependencies lists the custom variables f references, in
// order of first appearance. Switch formulas are scanned in the order switch
// expression, then each case's value and result, then the default.
func CustomVariableDependencies(f Formula) []string {
	texts := []string{f.Expression}
	if f.IsSwitch() {
		texts = []string{f.SwitchExpression}
		for _, c := range f.Cases {
			texts = append(texts, c.CaseValue, c.ResultExpression)
		}
		texts = append(texts, f.DefaultValue)
	}

	var deps []string
	seen := make(map[string]bool)
	for _, text := range texts {
		for _, m := range customVariablePattern.FindAllStringSubmatch(text, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				deps = append(deps, m[1])
			}
		}
	}
	return deps
}
