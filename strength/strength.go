// Package strength scores password strength deterministically and reports
// every unmet criterion, so a caller can render the full list of
// improvements at once instead of the first failure.
package strength

import (
	"strings"
	"unicode"
)

// Level buckets a score into the product's pt-BR strength scale. The string
// values are the wire values the finance app's UI already consumes.
type Level string

const (
	LevelVeryWeak   Level = "MUITO_FRACA"
	LevelWeak       Level = "FRACA"
	LevelMedium     Level = "MEDIA"
	LevelStrong     Level = "FORTE"
	LevelVeryStrong Level = "MUITO_FORTE"
)

// Suggestion texts, one per criterion, emitted in this order.
const (
	SuggestMinLength = "use at least 8 characters"
	SuggestLowercase = "add a lowercase letter"
	SuggestUppercase = "add an uppercase letter"
	SuggestDigit     = "add a digit"
	SuggestSpecial   = "add a special character"
	SuggestNoPattern = "avoid common patterns"
	SuggestNoRepeat  = "avoid repeating the same character"
)

// Result is a pure function of the evaluated password.
type Result struct {
	Score       int // 0..100
	Level       Level
	Valid       bool
	Suggestions []string
}

const (
	minLength     = 8
	minValidScore = 60
	maxRun        = 2 // longest tolerated run of one character
)

// Passwords containing any of these (case-insensitive) are penalized.
var weakPatterns = []string{
	"password",
	"senha",
	"123456",
	"654321",
	"qwerty",
	"abc123",
	"111111",
	"000000",
	"admin",
}

// Evaluate scores password on length, character-class coverage, absence of
// known weak patterns, and absence of long identical-character runs.
//
// Scoring (clamped to 0..100): length >= 8 earns 15, >= 12 another 10,
// >= 16 another 5; each character class earns 10, all four together another
// 10; a pattern-free password earns 10 and a pattern costs 30; a run-free
// password earns 10 and a run of three or more costs 10.
//
// Valid requires score >= 60, length >= 8, and lower+upper+digit together.
func Evaluate(password string) Result {
	length := len([]rune(password))

	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	patternFree := !containsWeakPattern(password)
	runFree := longestRun(password) <= maxRun

	score := 0
	if length >= minLength {
		score += 15
	}
	if length >= 12 {
		score += 10
	}
	if length >= 16 {
		score += 5
	}
	for _, ok := range []bool{hasLower, hasUpper, hasDigit, hasSpecial} {
		if ok {
			score += 10
		}
	}
	if hasLower && hasUpper && hasDigit && hasSpecial {
		score += 10
	}
	if patternFree {
		score += 10
	} else {
		score -= 30
	}
	if runFree {
		score += 10
	} else {
		score -= 10
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	var suggestions []string
	if length < minLength {
		suggestions = append(suggestions, SuggestMinLength)
	}
	if !hasLower {
		suggestions = append(suggestions, SuggestLowercase)
	}
	if !hasUpper {
		suggestions = append(suggestions, SuggestUppercase)
	}
	if !hasDigit {
		suggestions = append(suggestions, SuggestDigit)
	}
	if !hasSpecial {
		suggestions = append(suggestions, SuggestSpecial)
	}
	if !patternFree {
		suggestions = append(suggestions, SuggestNoPattern)
	}
	if !runFree {
		suggestions = append(suggestions, SuggestNoRepeat)
	}

	return Result{
		Score:       score,
		Level:       levelFor(score),
		Valid:       score >= minValidScore && length >= minLength && hasLower && hasUpper && hasDigit,
		Suggestions: suggestions,
	}
}

func levelFor(score int) Level {
	switch {
	case score < 20:
		return LevelVeryWeak
	case score < 40:
		return LevelWeak
	case score < 60:
		return LevelMedium
	case score < 80:
		return LevelStrong
	default:
		return LevelVeryStrong
	}
}

func containsWeakPattern(password string) bool {
	lower := strings.ToLower(password)
	for _, p := range weakPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func longestRun(password string) int {
	var (
		longest int
		current int
		prev    rune
	)
	for i, r := range password {
		if i == 0 || r != prev {
			current = 1
		} else {
			current++
		}
		if current > longest {
			longest = current
		}
		prev = r
	}
	return longest
}
