package validate

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/sells-group/impact-report/internal/model"
)

// Consistency checks that each mechanism value is written the same way in
// every section that mentions it. Company name mentions are recorded but
// never compared.
func Consistency(sections map[string]string, rc *model.ReportContext) model.ConsistencyResult {
	res := model.ConsistencyResult{
		IsConsistent:    true,
		Inconsistencies: []string{},
		CheckedValues:   map[string][]model.ValueOccurrence{},
	}
	names := sortedSections(sections)

	companyKey := "company_name"
	res.CheckedValues[companyKey] = []model.ValueOccurrence{}
	if rc.CompanyName != "" {
		folded := model.Fold(rc.CompanyName)
		for _, name := range names {
			if strings.Contains(model.Fold(sections[name]), folded) {
				res.CheckedValues[companyKey] = append(res.CheckedValues[companyKey],
					model.ValueOccurrence{Section: name, Literal: rc.CompanyName})
			}
		}
	}

	literals := make(map[string]map[string]bool, len(names))
	for _, name := range names {
		set := map[string]bool{}
		for _, tok := range literalToken.FindAllString(sections[name], -1) {
			set[tok] = true
		}
		literals[name] = set
	}

	for _, m := range rc.Profile.Mechanisms {
		if m.Value == nil {
			continue
		}
		key := fmt.Sprintf("value_%s_%s", m.Stakeholder, m.Description)
		reps := representations(*m.Value)
		if *m.Value <= StructuralThreshold {
			// A bare "2" reads as a count or list number, not a restatement.
			reps = slices.DeleteFunc(reps, func(r string) bool { return !strings.Contains(r, ".") })
		}

		occ := res.CheckedValues[key]
		if occ == nil {
			occ = []model.ValueOccurrence{}
		}
		for _, name := range names {
			for _, r := range reps {
				if literals[name][r] {
					occ = append(occ, model.ValueOccurrence{Section: name, Literal: r})
					break
				}
			}
		}
		res.CheckedValues[key] = occ
	}

	keys := make([]string, 0, len(res.CheckedValues))
	for k := range res.CheckedValues {
		if k != companyKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		occ := res.CheckedValues[key]
		distinct := map[string]bool{}
		for _, o := range occ {
			distinct[o.Literal] = true
		}
		if len(distinct) > 1 {
			parts := make([]string, len(occ))
			for i, o := range occ {
				parts[i] = fmt.Sprintf("%s in %s", o.Literal, o.Section)
			}
			res.Inconsistencies = append(res.Inconsistencies,
				fmt.Sprintf("value %q is written differently across sections: %s", key, strings.Join(parts, ", ")))
		}
	}
	res.IsConsistent = len(res.Inconsistencies) == 0
	return res
}
