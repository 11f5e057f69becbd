package credential

import "strings"

// Pair is the access/refresh credential pair issued by the backend.
//
// Pair values are immutable snapshots; the [Store] hands out copies.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// Complete reports whether both tokens are present.
func (p Pair) Complete() bool {
	return strings.TrimSpace(p.AccessToken) != "" && strings.TrimSpace(p.RefreshToken) != ""
}

// Empty reports whether both tokens are absent.
func (p Pair) Empty() bool {
	return p.AccessToken == "" && p.RefreshToken == ""
}

// String never includes token material.
func (p Pair) String() string {
	switch {
	case p.Complete():
		return "credential.Pair{authenticated}"
	case p.Empty():
		return "credential.Pair{anonymous}"
	default:
		return "credential.Pair{incomplete}"
	}
}

// Record is the persisted form of a [Pair].
type Record struct {
	Pair
	SavedAt int64
}
