// SPDX-License-Identifier: Apache-2.0

package references

import "strings"

// sectionRule maps heading keywords to a reference type.
type sectionRule struct {
	keywords []string
	refType  string
}

// Rules are evaluated in order; the first match wins.
var sectionRules = []sectionRule{
	{keywords: []string{"normative reference"}, refType: TypeNormative},
	{keywords: []string{"bibliography", "informative reference", "bibliographic reference"}, refType: TypeBibliographic},
}

// SectionType returns the reference type listed under a heading, or false
// when the heading does not introduce a reference list.
func SectionType(heading string) (string, bool) {
	lower := strings.ToLower(heading)
	for _, rule := range sectionRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.refType, true
			}
		}
	}
	return "", false
}
