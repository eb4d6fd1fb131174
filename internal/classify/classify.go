package classify

import (
	"strings"

	"github.com/licensewatch/license-scanner/internal/scanner"
)

// Classifier applies the layered license classification rules. It is
// stateless and safe for concurrent use.
type Classifier struct{}

// New constructs a Classifier.
func New() *Classifier {
	return &Classifier{}
}

// DetermineCCLicense returns the Creative Commons label for the given URL
// and text. Precedence, first hit wins:
//
//  1. CC0 markers in either input
//  2. a licenses/{type}/{version} path segment in the URL
//  3. the generic Creative Commons pattern over the text
//
// Non-CC families never produce a label here; they surface only through
// ExtractLicenseMentions.
func (c *Classifier) DetermineCCLicense(rawURL, text string) string {
	if rawURL == "" && text == "" {
		return scanner.UnknownLicense
	}
	urlLower := strings.ToLower(rawURL)
	textLower := strings.ToLower(text)

	if isCCZero(urlLower, textLower) {
		return "CC0"
	}
	if label := licenseFromURL(urlLower); label != "" {
		return label
	}
	if label := licenseFromText(textLower); label != "" {
		return label
	}
	return scanner.UnknownLicense
}

// isCCZero checks for public-domain dedication markers. CC0 outranks every
// other classification signal.
func isCCZero(urlLower, textLower string) bool {
	return strings.Contains(urlLower, "publicdomain/zero") ||
		strings.Contains(textLower, "cc0") ||
		strings.Contains(textLower, "creative commons zero")
}

// licenseFromURL scans the 6x5 type/version combinations in type-major,
// version-minor order and returns the first path match.
func licenseFromURL(urlLower string) string {
	for _, ccType := range ccTypes {
		for _, version := range ccVersions {
			needle := "licenses/" + strings.ToLower(ccType) + "/" + version
			if strings.Contains(urlLower, needle) {
				return "CC-" + ccType + "-" + version
			}
		}
	}
	return ""
}

// licenseFromText runs the generic CC pattern and normalizes the matched
// tokens into a CC-{...} label. Token order mirrors the source text.
func licenseFromText(textLower string) string {
	matched := familyPatterns[FamilyCC].FindString(textLower)
	if matched == "" {
		return ""
	}
	label := normalizeCCTokens(matched)
	if label == "" {
		return ""
	}
	return "CC-" + label
}

// normalizeCCTokens maps each whitespace- or hyphen-separated token of the
// matched text through the abbreviation table, keeps known version tokens
// verbatim, and drops everything else.
func normalizeCCTokens(matched string) string {
	matched = strings.ReplaceAll(strings.ToLower(matched), "-", " ")
	var mapped []string
	for _, token := range strings.Fields(matched) {
		switch {
		case ccTypeAbbrev[token] != "":
			mapped = append(mapped, ccTypeAbbrev[token])
		case isCCVersion(token):
			mapped = append(mapped, token)
		}
	}
	return strings.Join(mapped, "-")
}

// ExtractLicenseMentions returns the set of license families mentioned
// anywhere in text. The family name is the coarse label; no version or
// type extraction happens here.
func (c *Classifier) ExtractLicenseMentions(text string) scanner.StringSet {
	mentions := scanner.NewStringSet()
	if text == "" {
		return mentions
	}
	for family, pattern := range familyPatterns {
		if pattern.MatchString(text) {
			mentions.Add(family)
		}
	}
	return mentions
}
