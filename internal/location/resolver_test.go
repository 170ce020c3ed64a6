package location

import "testing"

func TestResolve_PhrasePatterns(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"weather in", "weather in goa", "Goa"},
		{"weather at", "weather at new delhi", "New Delhi"},
		{"temperature in", "temperature in mumbai", "Mumbai"},
		{"forecast for", "forecast for pune", "Pune"},
		{"question form", "what is the weather in london", "London"},
		{"how form", "how is the weather in tokyo", "Tokyo"},
		{"current weather", "current weather in berlin", "Berlin"},
		{"contraction", "what's the weather in paris", "Paris"},
		{"bare weather", "weather delhi", "Delhi"},
		{"bare temperature", "temperature chennai", "Chennai"},
		{"stop words stripped", "weather in th delhi", "Delhi"},
		{"multi word city", "weather in rio de janeiro", "Rio De Janeiro"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Resolve(tt.query, IsFollowup(tt.query), "")
			if !ok {
				t.Fatalf("Resolve(%q) returned no location", tt.query)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestResolve_ReversePattern(t *testing.T) {
	got, ok := Resolve("delhi weather", IsFollowup("delhi weather"), "")
	if !ok || got != "Delhi" {
		t.Errorf("Resolve(\"delhi weather\") = %q, %v; want Delhi", got, ok)
	}
}

func TestResolve_TrailingWordsFallback(t *testing.T) {
	got, ok := Resolve("goa", false, "")
	if !ok || got != "Goa" {
		t.Errorf("Resolve(\"goa\") = %q, %v; want Goa", got, ok)
	}
}

func TestResolve_FollowupUsesLastLocation(t *testing.T) {
	query := "what about tomorrow"
	got, ok := Resolve(query, IsFollowup(query), "Pune")
	if !ok || got != "Pune" {
		t.Errorf("Resolve(%q) = %q, %v; want Pune", query, got, ok)
	}
}

func TestResolve_FollowupWithoutLastLocation(t *testing.T) {
	query := "how about later today"
	got, ok := Resolve(query, IsFollowup(query), "")
	if ok || got != "" {
		t.Errorf("Resolve(%q) = %q, %v; want absent", query, got, ok)
	}
}

func TestResolve_ShortCandidateRejected(t *testing.T) {
	if _, ok := Resolve("ny", false, ""); ok {
		t.Error("candidates of length <= 2 after stripping must be rejected")
	}
}

func TestResolve_EmptyQuery(t *testing.T) {
	if _, ok := Resolve("   ", true, "Pune"); ok {
		t.Error("blank query must not resolve")
	}
}

func TestIsFollowup(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"what about tomorrow", true},
		{"will it rain", true},
		{"same place again", true},
		{"tell me a joke", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsFollowup(tt.query); got != tt.want {
			t.Errorf("IsFollowup(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}
