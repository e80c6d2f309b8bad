package detect

import (
	"fmt"
	"sort"

	"wyngai/internal/domain"
)

// PairingRules returns the rules that look for forbidden code or modifier
// combinations across lines.
func PairingRules() []*BuiltinRule {
	return []*BuiltinRule{
		{
			key: "unbundling_ncci_violation", name: "Unbundled code pair",
			sev: domain.SeverityHigh,
			fn:  checkUnbundling,
		},
		{
			key: "prof_tech_double_billing", name: "Professional and technical components billed twice",
			sev: domain.SeverityHigh,
			fn:  checkProfTechDoubleBilling,
		},
		{
			key: "modifier_26_tc_same_line", name: "Modifiers 26 and TC on one line",
			sev: domain.SeverityWarn,
			fn:  checkModifier26TCSameLine,
		},
	}
}

// checkUnbundling fires when both halves of a known NCCI column1/column2
// edit are billed and the column2 line carries no unbundling modifier.
func checkUnbundling(ctx *CaseContext) *domain.Detection {
	byCode := make(map[string][]int)
	for i := range ctx.Lines {
		if ctx.Lines[i].Code != "" {
			byCode[ctx.Lines[i].Code] = append(byCode[ctx.Lines[i].Code], i)
		}
	}

	for _, pair := range ncciPairs {
		col1Refs, ok1 := byCode[pair.column1]
		col2Refs, ok2 := byCode[pair.column2]
		if !ok1 || !ok2 {
			continue
		}
		for _, j := range col2Refs {
			if hasUnbundlingModifier(&ctx.Lines[j]) {
				continue
			}
			refs := append(append([]int(nil), col1Refs...), j)
			sort.Ints(refs)
			return &domain.Detection{
				Explanation: fmt.Sprintf(
					"Code %s is a component of %s and should not be billed separately on the same claim unless the services were distinct (modifier 59/X series).",
					pair.column2, pair.column1,
				),
				Evidence: domain.Evidence{
					LineRefs: refs,
					Codes:    []string{pair.column1, pair.column2},
				},
				Citations: []domain.Citation{citeNCCI},
			}
		}
	}
	return nil
}

func hasUnbundlingModifier(line *domain.LineItem) bool {
	for _, m := range line.Modifiers {
		if unbundlingModifiers[m] {
			return true
		}
	}
	return false
}

// checkProfTechDoubleBilling fires when one code on one date is billed as
// both components (26 + TC on separate lines) or as the global service plus
// a component, which together exceed the whole.
func checkProfTechDoubleBilling(ctx *CaseContext) *domain.Detection {
	type group struct {
		globalRefs []int
		profRefs   []int
		techRefs   []int
	}
	groups := make(map[string]*group)
	for i := range ctx.Lines {
		line := &ctx.Lines[i]
		if line.Code == "" {
			continue
		}
		key := line.Code + "|" + line.DateOfService
		g := groups[key]
		if g == nil {
			g = &group{}
			groups[key] = g
		}
		has26 := line.HasModifier("26")
		hasTC := line.HasModifier("TC")
		switch {
		case has26 && hasTC:
			// Handled by modifier_26_tc_same_line.
		case has26:
			g.profRefs = append(g.profRefs, i)
		case hasTC:
			g.techRefs = append(g.techRefs, i)
		default:
			g.globalRefs = append(g.globalRefs, i)
		}
	}

	var keys []string
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		g := groups[k]
		split := len(g.profRefs) > 0 && len(g.techRefs) > 0
		globalPlus := len(g.globalRefs) > 0 && (len(g.profRefs) > 0 || len(g.techRefs) > 0)
		if !split && !globalPlus {
			continue
		}
		refs := append(append(append([]int(nil), g.globalRefs...), g.profRefs...), g.techRefs...)
		sort.Ints(refs)
		code := ctx.Lines[refs[0]].Code
		reason := "billed as both the professional (26) and technical (TC) components"
		if globalPlus {
			reason = "billed globally and again as a split component"
		}
		return &domain.Detection{
			Explanation: fmt.Sprintf(
				"Code %s is %s on the same date. The global service already includes both components.",
				code, reason,
			),
			Evidence: domain.Evidence{
				LineRefs: refs,
				Codes:    []string{code},
			},
			Citations: []domain.Citation{citeClaimsManual, citeModifierDefs},
		}
	}
	return nil
}

// checkModifier26TCSameLine fires when a single line carries both 26 and
// TC, which cancel each other and usually signal a data-entry mistake.
func checkModifier26TCSameLine(ctx *CaseContext) *domain.Detection {
	for i := range ctx.Lines {
		line := &ctx.Lines[i]
		if line.HasModifier("26") && line.HasModifier("TC") {
			return &domain.Detection{
				Explanation: fmt.Sprintf(
					"Line %s carries both modifier 26 (professional only) and TC (technical only). A service is one or the other, never both on one line.",
					line.LineID,
				),
				Evidence: domain.Evidence{
					LineRefs: []int{i},
					Codes:    []string{line.Code},
				},
				Citations: []domain.Citation{citeModifierDefs},
			}
		}
	}
	return nil
}
