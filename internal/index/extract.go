// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"regexp"
	"strings"
)

// Markup stripping. The parse API returns rendered HTML; only the plain
// text feeds sub-entity discovery and word counts.
var (
	scriptPattern = regexp.MustCompile(`(?is)<script\b.*?</script>`)
	stylePattern  = regexp.MustCompile(`(?is)<style\b.*?</style>`)
	tagPattern    = regexp.MustCompile(`<[^>]+>`)
)

// cleanHTML strips scripts, styles, and structural tags to plain text,
// decodes common entities, and collapses whitespace.
func cleanHTML(html string) string {
	s := scriptPattern.ReplaceAllString(html, " ")
	s = stylePattern.ReplaceAllString(s, " ")
	s = tagPattern.ReplaceAllString(s, " ")

	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", "\"")
	s = strings.ReplaceAll(s, "&#39;", "'")
	s = strings.ReplaceAll(s, "&nbsp;", " ")

	return strings.Join(strings.Fields(s), " ")
}

// Sub-entity discovery is heuristic text-pattern matching over extracted
// page text: quoted-title forms, numbered track listings, and labeled list
// headers. It is not guaranteed complete or precise; callers cap and
// deduplicate the output.
var albumPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)"([^"]+)"\s*\(album\)`),
	regexp.MustCompile(`(?i)album\s+"([^"]+)"`),
	regexp.MustCompile(`(?i)Albums?:\s*([^.;\n]+)`),
}

var songPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)"([^"]+)"\s*\(song\)`),
	regexp.MustCompile(`(?i)song\s+"([^"]+)"`),
	regexp.MustCompile(`(?i)Track\s+(?:\d+)[:.]\s*"?([^".;\n]+)"?`),
}

// extractNames applies patterns to text and returns trimmed, deduplicated
// capture groups, capped at max. First occurrence order is preserved.
func extractNames(text string, patterns []*regexp.Regexp, max int) []string {
	seen := make(map[string]bool)
	var names []string
	for _, p := range patterns {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			name := strings.TrimSpace(m[1])
			if name == "" || len(name) > 100 {
				continue
			}
			key := strings.ToLower(name)
			if seen[key] {
				continue
			}
			seen[key] = true
			names = append(names, name)
			if len(names) >= max {
				return names
			}
		}
	}
	return names
}

// musicTerms accepts a page whose snippet lacks the entity name but reads
// like music coverage.
var musicTerms = []string{"musician", "singer", "band", "artist", "album", "song", "single", "track", "music", "recording"}

func hasMusicTerm(s string) bool {
	for _, term := range musicTerms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}

// relevantPage filters search results: disambiguation pages and pages in
// the Category/User namespaces are excluded; otherwise the subject must
// appear in the title or snippet, or the snippet must contain a music term.
func relevantPage(title, snippet, subject string) bool {
	titleLower := strings.ToLower(title)
	snippetLower := strings.ToLower(snippet)
	subjectLower := strings.ToLower(subject)

	if strings.Contains(titleLower, "disambiguation") {
		return false
	}
	if strings.HasPrefix(title, "Category:") || strings.HasPrefix(title, "User:") {
		return false
	}
	if strings.Contains(titleLower, subjectLower) || strings.Contains(snippetLower, subjectLower) {
		return true
	}
	return hasMusicTerm(snippetLower)
}
