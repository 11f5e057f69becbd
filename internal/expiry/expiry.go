// Package expiry decides whether a failed response means the access token expired.
package expiry

import (
	"encoding/json"
	"strings"
)

// Rule describes an expiry-shaped failure. A response matches when its status is in
// Statuses and, if Codes is non-empty, the JSON body's CodeField holds one of Codes.
type Rule struct {
	Statuses  []int
	CodeField string
	Codes     []string
}

// Predicate evaluates a [Rule]. The zero value never matches.
type Predicate struct {
	statuses  map[int]struct{}
	codeField string
	codes     map[string]struct{}
}

// New compiles r into a [Predicate].
func New(r Rule) Predicate {
	p := Predicate{
		statuses:  make(map[int]struct{}, len(r.Statuses)),
		codeField: strings.TrimSpace(r.CodeField),
	}
	for _, s := range r.Statuses {
		p.statuses[s] = struct{}{}
	}
	if len(r.Codes) > 0 {
		p.codes = make(map[string]struct{}, len(r.Codes))
		for _, c := range r.Codes {
			if c = strings.TrimSpace(c); c != "" {
				p.codes[c] = struct{}{}
			}
		}
	}
	return p
}

// Match reports whether status and body form an expiry-shaped failure.
func (p Predicate) Match(status int, body []byte) bool {
	if _, ok := p.statuses[status]; !ok {
		return false
	}
	if len(p.codes) == 0 {
		return true
	}
	if p.codeField == "" || len(body) == 0 {
		return false
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return false
	}
	raw, ok := payload[p.codeField]
	if !ok {
		return false
	}
	var code string
	if err := json.Unmarshal(raw, &code); err != nil {
		return false
	}
	_, ok = p.codes[code]
	return ok
}
