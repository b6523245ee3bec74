package position

import (
	"strings"

	"github.com/greenhouse-wm/greenhouse/internal/platform"
)

// Match finds the live window best matching a saved identity. The cascade
// trades specificity against stability:
//
//  1. Exact (process, class, title) match — the window looks untouched.
//  2. (process, class) match — titles drift, so when several windows of the
//     same application qualify, the one whose current title overlaps the
//     saved hint most wins; ties go to enumeration order.
//  3. Unique process match — the application is running with a single
//     window, even if it renamed its class (rare, but Electron apps do).
//  4. No match: the window is considered not currently running.
//
// Candidates are expected to come from a single fresh enumeration snapshot.
func Match(saved Identity, candidates []platform.Window) (platform.WindowID, bool) {
	for _, c := range candidates {
		if c.Process == saved.Process && c.Class == saved.Class && c.Title == saved.TitleHint {
			return c.ID, true
		}
	}

	var pairMatches []platform.Window
	for _, c := range candidates {
		if c.Process == saved.Process && c.Class == saved.Class {
			pairMatches = append(pairMatches, c)
		}
	}
	switch {
	case len(pairMatches) == 1:
		return pairMatches[0].ID, true
	case len(pairMatches) > 1:
		best := pairMatches[0]
		bestScore := titleScore(saved.TitleHint, best.Title)
		for _, c := range pairMatches[1:] {
			if score := titleScore(saved.TitleHint, c.Title); score > bestScore {
				best, bestScore = c, score
			}
		}
		return best.ID, true
	}

	var processMatch platform.Window
	processCount := 0
	for _, c := range candidates {
		if c.Process == saved.Process {
			processMatch = c
			processCount++
		}
	}
	if processCount == 1 {
		return processMatch.ID, true
	}

	return 0, false
}

// titleScore measures substring overlap between the saved title hint and a
// candidate's current title, in [0, 1]. Exact (case-insensitive) equality
// scores 1; otherwise the score is the longest common substring length
// relative to the longer string. The exact function is a heuristic, not a
// contract — only its ordering matters.
func titleScore(hint, title string) float64 {
	if hint == "" || title == "" {
		return 0
	}
	a := strings.ToLower(hint)
	b := strings.ToLower(title)
	if a == b {
		return 1
	}
	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}
	return float64(longestCommonSubstring(a, b)) / float64(longer)
}

// longestCommonSubstring returns the length of the longest substring shared
// by a and b. Window titles are short, so the quadratic scan is fine.
func longestCommonSubstring(a, b string) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	best := 0
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > best {
					best = cur[j]
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return best
}
