package engine

import (
	"sort"
	"strings"
)

// utils.go - string helpers shared by the name parsers
//
// Data type names, operator names and register names typed on the command
// line are matched against a closed set. When nothing matches, Suggest
// returns the closest candidates so the error message can say "did you mean".

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	matrix := make([][]int, len(s1)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(s2)+1)
	}
	for i := 0; i <= len(s1); i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len(s2); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(s1); i++ {
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost) // substitution
		}
	}

	return matrix[len(s1)][len(s2)]
}

// Suggest returns up to maxSuggestions candidates that are close to name,
// closest first. Exact matches are not suggested.
func Suggest(name string, candidates []string, maxSuggestions int) []string {
	type suggestion struct {
		name     string
		distance int
	}

	name = strings.ToLower(name)
	threshold := 2 // Maximum edit distance for suggestions

	var suggestions []suggestion
	for _, c := range candidates {
		dist := levenshteinDistance(name, strings.ToLower(c))
		if dist <= threshold && dist > 0 {
			suggestions = append(suggestions, suggestion{c, dist})
		}
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].distance == suggestions[j].distance {
			return suggestions[i].name < suggestions[j].name
		}
		return suggestions[i].distance < suggestions[j].distance
	})

	result := make([]string, 0, maxSuggestions)
	for i := 0; i < len(suggestions) && i < maxSuggestions; i++ {
		result = append(result, suggestions[i].name)
	}
	return result
}

// DidYouMean formats the suggestions for name as a trailing hint,
// or returns the empty string when there is nothing close enough.
func DidYouMean(name string, candidates []string) string {
	s := Suggest(name, candidates, 3)
	if len(s) == 0 {
		return ""
	}
	return " (did you mean " + strings.Join(s, ", ") + "?)"
}
