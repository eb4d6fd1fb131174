// Package classify implements license family detection and Creative Commons
// license classification over URLs and free text.
package classify

import "regexp"

// License family labels reported in licenseMentions.
const (
	FamilyMIT    = "MIT License"
	FamilyApache = "Apache License"
	FamilyCC     = "Creative Commons (CC)"
	FamilyGPL    = "GNU GPL"
	FamilyBSD    = "BSD License"
)

// familyPatterns maps each license family to its compiled text matcher.
// The patterns tolerate common formatting variants: separators may be
// spaces or hyphens, versions may carry a "v" prefix, and abbreviated or
// spelled-out Creative Commons attribute names both match.
var familyPatterns = map[string]*regexp.Regexp{
	// "MIT" with up to three words before "License" or "Variant",
	// e.g. "MIT License", "MIT style open source License".
	FamilyMIT: regexp.MustCompile(`(?i)\bMIT[-\s]+(?:\w+\s+){0,3}(?:License|Variant)`),

	// "Apache License 2.0", "Apache-2.0", "Apache License".
	FamilyApache: regexp.MustCompile(`(?i)\bApache[-\s]+(?:License[-\s]*(?:v?\d+(?:\.\d+)?)?|v?\d+(?:\.\d+)?)\b`),

	// "CC BY-SA 4.0", "Creative Commons Attribution", bare "CC0".
	FamilyCC: regexp.MustCompile(`(?i)\b(?:` +
		`CC[\s-]+(?:(?:BY|Attribution|SA|Share[\s-]?Alike|NC|Non[\s-]?Commercial|ND|No[\s-]?Derivatives)[\s-]?)+(?:\d\.\d)?` +
		`|Creative[\s-]+Commons[\s-]*(?:(?:Attribution|Share[\s-]?Alike|Non[\s-]?Commercial|No[\s-]?Derivatives|BY|SA|NC|ND)[\s-]*)*(?:\d\.\d)?` +
		`|CC0` +
		`)\b`),

	// "GNU GPL", "GPLv3", "LGPL 2.1", "General Public License".
	FamilyGPL: regexp.MustCompile(`(?i)\b(?:GNU[\s-]+(?:A|L)?GPL|(?:A|L)?GPL[\s-]*v?\d+(?:\.\d+)?|General\s+Public\s+License)\b`),

	// "BSD 3-Clause", "BSD License".
	FamilyBSD: regexp.MustCompile(`(?i)\bBSD[\s-]+(?:\d+[\s-]Clause|License)\b`),
}

// ccVersions lists the published Creative Commons license versions.
var ccVersions = []string{"1.0", "2.0", "2.5", "3.0", "4.0"}

// ccTypes lists the Creative Commons license types in URL path form.
var ccTypes = []string{"BY", "BY-SA", "BY-ND", "BY-NC", "BY-NC-SA", "BY-NC-ND"}

// ccTypeAbbrev maps spelled-out or abbreviated attribute tokens to their
// canonical abbreviation.
var ccTypeAbbrev = map[string]string{
	"attribution":    "BY",
	"by":             "BY",
	"noncommercial":  "NC",
	"non-commercial": "NC",
	"nc":             "NC",
	"sharealike":     "SA",
	"share-alike":    "SA",
	"sa":             "SA",
	"noderivatives":  "ND",
	"no-derivatives": "ND",
	"nd":             "ND",
}

func isCCVersion(token string) bool {
	for _, v := range ccVersions {
		if token == v {
			return true
		}
	}
	return false
}

// MentionsAnyFamily reports whether text matches any license family pattern.
func MentionsAnyFamily(text string) bool {
	if text == "" {
		return false
	}
	for _, pattern := range familyPatterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}
