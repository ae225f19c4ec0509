// Package models holds the challenge-response credential types shared by the
// store, service and transport layers.
package models

import "fmt"

// CRP is one stored challenge/response fact for one principal.
// (User, Challenge) is the primary key.
type CRP struct {
	User      string
	Challenge string
	Response  string
}

// Key identifies a record within a store.
func (c CRP) Key() string {
	return fmt.Sprintf("%s/%s", c.User, c.Challenge)
}

// Pair is a submitted challenge with its response.
type Pair struct {
	Challenge string `json:"challenge"`
	Response  string `json:"response"`
}

// Pairs is an ordered challenge set. Order is the caller's and is preserved
// from the wire through to authentication.
type Pairs []Pair

// Records tags every pair with user.
func (p Pairs) Records(user string) []CRP {
	records := make([]CRP, 0, len(p))
	for _, pair := range p {
		records = append(records, CRP{User: user, Challenge: pair.Challenge, Response: pair.Response})
	}
	return records
}

// Challenges returns the challenge names in order.
func (p Pairs) Challenges() []string {
	out := make([]string, 0, len(p))
	for _, pair := range p {
		out = append(out, pair.Challenge)
	}
	return out
}

// Duplicate returns the first challenge that appears more than once.
func (p Pairs) Duplicate() (string, bool) {
	seen := make(map[string]struct{}, len(p))
	for _, pair := range p {
		if _, ok := seen[pair.Challenge]; ok {
			return pair.Challenge, true
		}
		seen[pair.Challenge] = struct{}{}
	}
	return "", false
}

// Outcome labels the result of an enrol or authenticate call for metrics and audit.
type Outcome string

const (
	OutcomeSuccess           Outcome = "success"
	OutcomeAlreadyEnrolled   Outcome = "already_enrolled"
	OutcomeUserNotFound      Outcome = "user_not_found"
	OutcomeChallengeNotFound Outcome = "challenge_not_found"
	OutcomeMismatch          Outcome = "mismatch"
	OutcomeError             Outcome = "error"
)
