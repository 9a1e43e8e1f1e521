// Package parser turns pasted plain text (input lists, gear lists, riders)
// into structured records. Parsing is best effort: lines that do not match
// are dropped and no error is ever returned.
package parser

import (
	"regexp"
	"strings"

	"github.com/tourflow/tourflow/internal/model"
)

// ParsedDocument is the result of parsing one pasted document. Only the
// field matching Type is populated.
type ParsedDocument struct {
	Type     model.DocType        `json:"type"`
	Channels []model.InputChannel `json:"channels,omitempty"`
	Gear     []model.GearItem     `json:"gear,omitempty"`
	Rider    []RiderSection       `json:"rider,omitempty"`
	Raw      string               `json:"raw"`
}

// Parse dispatches on the document type. Types without a parser yield a
// document carrying only the raw text.
func Parse(docType model.DocType, text string) ParsedDocument {
	out := ParsedDocument{Type: docType, Raw: text}
	switch docType {
	case model.DocInputList:
		out.Channels = ParseInputList(text)
	case model.DocGearList:
		out.Gear = ParseGearList(text)
	case model.DocRider:
		out.Rider = ParseRider(text)
	}
	return out
}

// Empty reports whether nothing structured was recognised.
func (p ParsedDocument) Empty() bool {
	return len(p.Channels) == 0 && len(p.Gear) == 0 && len(p.Rider) == 0
}

var (
	bulletRe    = regexp.MustCompile(`^(?:[-*•·–]+|\d{1,3}[.)])\s+`)
	emptyParens = regexp.MustCompile(`\(\s*\)|\[\s*\]`)
	spacesRe    = regexp.MustCompile(`\s+`)
)

func lines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(strings.ReplaceAll(text, "\r", "\n"), "\n")
}

// tidy collapses whitespace, removes leftover empty brackets and trims
// separator punctuation from both ends.
func tidy(s string) string {
	s = emptyParens.ReplaceAllString(s, " ")
	s = spacesRe.ReplaceAllString(s, " ")
	return strings.Trim(s, " -–—:;,|/\t")
}

func hasLetter(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}
