// Package location extracts a candidate place name from a free-text chat
// query. Extraction is an ordered rule list evaluated first-match-wins; the
// priority order is the behavioral contract, not the pattern syntax.
package location

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Phrase rules, strongest first. Each captures the remainder of the line as
// the raw location.
var phrasePatterns = []*regexp.Regexp{
	regexp.MustCompile(`weather in ([\w\s,.'-]+)`),
	regexp.MustCompile(`weather at ([\w\s,.'-]+)`),
	regexp.MustCompile(`temperature in ([\w\s,.'-]+)`),
	regexp.MustCompile(`forecast for ([\w\s,.'-]+)`),
	regexp.MustCompile(`what.*weather in ([\w\s,.'-]+)`),
	regexp.MustCompile(`how.*weather in ([\w\s,.'-]+)`),
	regexp.MustCompile(`current weather in ([\w\s,.'-]+)`),
	regexp.MustCompile(`what's the weather in ([\w\s,.'-]+)`),
	regexp.MustCompile(`weather ([\w\s,.'-]+)`),
	regexp.MustCompile(`temperature ([\w\s,.'-]+)`),
}

// Reverse rule: "delhi weather", "mumbai temperature".
var reversePattern = regexp.MustCompile(`([\w\s,.'-]+)\s+(weather|temperature|forecast)`)

var stopWords = regexp.MustCompile(`\b(the|at|in|for|near|th|is|present)\b`)

var weatherTerms = []string{"weather", "temperature", "forecast", "rain", "snow", "wind", "sunrise", "sunset"}

var followupTerms = []string{"tomorrow", "day after", "next", "again", "same place", "how about", "what about", "later", "today"}

// IsFollowup reports whether the query refers to the weather domain or carries
// a temporal follow-up cue, making it eligible to reuse the session's last
// known location.
func IsFollowup(query string) bool {
	q := strings.ToLower(query)
	for _, term := range weatherTerms {
		if strings.Contains(q, term) {
			return true
		}
	}
	for _, term := range followupTerms {
		if strings.Contains(q, term) {
			return true
		}
	}
	return false
}

// normalize strips stop-words, collapses whitespace and title-cases the
// candidate. Candidates of 2 characters or fewer are rejected.
func normalize(candidate string) string {
	c := stopWords.ReplaceAllString(candidate, "")
	c = strings.Join(strings.Fields(c), " ")
	if len(c) <= 2 {
		return ""
	}
	return cases.Title(language.English).String(c)
}

// Resolve extracts a location from the query, or falls back to lastLocation
// for follow-up queries when followupAllowed is set. The second return value
// is false when no location could be resolved.
func Resolve(query string, followupAllowed bool, lastLocation string) (string, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return "", false
	}

	for _, re := range phrasePatterns {
		if m := re.FindStringSubmatch(q); m != nil {
			if loc := normalize(m[1]); loc != "" {
				return loc, true
			}
		}
	}

	if m := reversePattern.FindStringSubmatch(q); m != nil {
		if loc := normalize(m[1]); loc != "" {
			return loc, true
		}
	}

	// Follow-up cues win over the trailing-words fallback: "what about
	// tomorrow" must resolve against the session, not to "Tomorrow".
	if followupAllowed {
		return lastLocation, lastLocation != ""
	}

	words := strings.Fields(q)
	for _, size := range []int{3, 2, 1} {
		if len(words) >= size {
			if loc := normalize(strings.Join(words[len(words)-size:], " ")); loc != "" {
				return loc, true
			}
		}
	}

	return "", false
}
