// Package grammar holds the ordered set of access-log line grammars.
//
// Mirrors run heterogeneous server and CDN software, so every supported line
// layout is a named Grammar. A Set tries its grammars in a fixed priority
// order and the first match wins.
package grammar

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Address is the address evidence of a matched line: either a
// SingleAddress or an AddressList.
type Address interface {
	// Tokens returns the address tokens in line order.
	Tokens() []string
	isAddress()
}

// SingleAddress is a line carrying one client address.
type SingleAddress string

// Tokens implements Address.
func (a SingleAddress) Tokens() []string { return []string{string(a)} }

func (SingleAddress) isAddress() {}

// AddressList is a line carrying several addresses (proxy chains), in order.
type AddressList []string

// Tokens implements Address.
func (a AddressList) Tokens() []string { return []string(a) }

func (AddressList) isAddress() {}

// DateEvidence is the date evidence of a matched line: either a
// FormattedDate or an EpochSeconds.
type DateEvidence interface {
	isDateEvidence()
}

// FormattedDate is an NCSA date such as "12/Mar/2023:14:22:30".
type FormattedDate string

func (FormattedDate) isDateEvidence() {}

// EpochSeconds is a Unix timestamp in seconds, as text.
type EpochSeconds string

func (EpochSeconds) isDateEvidence() {}

// Match is the result of a successful grammar match. Address and Date are
// always non-nil.
type Match struct {
	Grammar string
	Address Address
	Date    DateEvidence
}

// Grammar is a named line pattern.
type Grammar struct {
	name     string
	re       *regexp.Regexp
	address  int
	list     int
	date     int
	epoch    int
	hasList  bool
	hasEpoch bool
}

// New compiles a grammar. The pattern must capture `ip`, may capture
// `ip_list`, and must capture exactly one of `date` or `timestamp`.
func New(name, pattern string) (*Grammar, error) {
	if name == "" {
		return nil, fmt.Errorf("grammar name cannot be empty")
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("grammar %q: %w", name, err)
	}

	g := &Grammar{
		name:    name,
		re:      re,
		address: re.SubexpIndex(groupAddress),
		list:    re.SubexpIndex(groupAddressList),
		date:    re.SubexpIndex(groupDate),
		epoch:   re.SubexpIndex(groupEpoch),
	}
	g.hasList = g.list >= 0
	g.hasEpoch = g.epoch >= 0

	if g.address < 0 {
		return nil, fmt.Errorf("grammar %q: pattern must capture %q", name, groupAddress)
	}
	if (g.date >= 0) == g.hasEpoch {
		return nil, fmt.Errorf("grammar %q: pattern must capture exactly one of %q or %q", name, groupDate, groupEpoch)
	}

	return g, nil
}

// MustNew is like New but panics on error.
func MustNew(name, pattern string) *Grammar {
	g, err := New(name, pattern)
	if err != nil {
		panic(err)
	}
	return g
}

// Name returns the grammar name.
func (g *Grammar) Name() string {
	return g.name
}

// Match applies the grammar to a single line.
func (g *Grammar) Match(line string) (Match, bool) {
	sub := g.re.FindStringSubmatch(line)
	if sub == nil {
		return Match{}, false
	}

	m := Match{Grammar: g.name}

	if g.hasList {
		tokens := []string{sub[g.address]}
		tokens = append(tokens, splitAddressList(sub[g.list])...)
		m.Address = AddressList(tokens)
	} else {
		m.Address = SingleAddress(sub[g.address])
	}

	if g.hasEpoch {
		m.Date = EpochSeconds(sub[g.epoch])
	} else {
		m.Date = FormattedDate(sub[g.date])
	}

	return m, true
}

func splitAddressList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

// Set is an ordered list of grammars.
type Set struct {
	grammars []*Grammar
}

// NewSet builds a set that tries grammars in the given order.
func NewSet(grammars ...*Grammar) *Set {
	return &Set{grammars: grammars}
}

// Default returns the built-in grammar set in priority order.
func Default() *Set {
	grammars := make([]*Grammar, 0, len(builtinPatterns))
	for _, b := range builtinPatterns {
		grammars = append(grammars, MustNew(b.name, b.pattern))
	}
	return NewSet(grammars...)
}

// Match returns the match of the first grammar that accepts the line.
func (s *Set) Match(line string) (Match, bool) {
	for _, g := range s.grammars {
		if m, ok := g.Match(line); ok {
			return m, true
		}
	}
	return Match{}, false
}

// Names returns the grammar names in priority order.
func (s *Set) Names() []string {
	names := make([]string, len(s.grammars))
	for i, g := range s.grammars {
		names[i] = g.name
	}
	return names
}

// Len returns the number of grammars in the set.
func (s *Set) Len() int {
	return len(s.grammars)
}
