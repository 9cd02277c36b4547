package discover

import (
	"regexp"
	"strings"
)

// chromeLineRe matches lines that are site chrome rather than policy prose:
// cookie banners, auth links, navigation helpers.
var chromeLineRe = regexp.MustCompile(`(?i)^(accept all cookies|accept cookies|cookie settings|manage cookies|skip to (main )?content|back to top|return to top|sign in|sign up|log in|register|create account|subscribe|newsletter)$`)

// CleanPolicyText normalizes extracted page text before scoring and output:
// chrome lines are dropped, long lines repeated verbatim are deduplicated,
// and runs of blank lines collapse to one.
func CleanPolicyText(text string) string {
	lines := strings.Split(text, "\n")
	seen := make(map[string]struct{})
	out := make([]string, 0, len(lines))
	blank := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			blank = true
			continue
		}
		if chromeLineRe.MatchString(trimmed) {
			continue
		}
		// Repeated long lines are footer/nav text stamped on every block.
		if len(trimmed) > 20 {
			if _, dup := seen[trimmed]; dup {
				continue
			}
			seen[trimmed] = struct{}{}
		}
		if blank && len(out) > 0 {
			out = append(out, "")
		}
		blank = false
		out = append(out, trimmed)
	}

	return strings.Join(out, "\n")
}
