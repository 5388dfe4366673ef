package domain

import (
	"strconv"
	"strings"
)

// Orientation represents the orientation of a drawn card.
type Orientation string

const (
	Upright  Orientation = "Upright"
	Reversed Orientation = "Reversed"
)

// CardType distinguishes major arcana from the four suits.
type CardType string

const (
	CardTypeMajor CardType = "major"
	CardTypeMinor CardType = "minor"
)

// Suit identifies a minor-arcana suit. Major arcana cards carry SuitNone.
type Suit string

const (
	SuitNone      Suit = ""
	SuitWands     Suit = "wands"
	SuitCups      Suit = "cups"
	SuitSwords    Suit = "swords"
	SuitPentacles Suit = "pentacles"
)

// Card is a single card in the Augurbox deck. Cards are loaded once at
// startup and never mutated. Prompt holds the long-form imagery text and
// is not used for readings.
type Card struct {
	ID          int    `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Prompt      string `json:"prompt"`
}

// Type derives major/minor from the card code prefix.
func (c Card) Type() CardType {
	if strings.HasPrefix(c.Code, "MAJ_") {
		return CardTypeMajor
	}
	return CardTypeMinor
}

// Suit derives the minor-arcana suit from the card code prefix.
func (c Card) Suit() Suit {
	switch {
	case strings.HasPrefix(c.Code, "WANDS_"):
		return SuitWands
	case strings.HasPrefix(c.Code, "CUPS_"):
		return SuitCups
	case strings.HasPrefix(c.Code, "SWORDS_"):
		return SuitSwords
	case strings.HasPrefix(c.Code, "PENTACLES_"):
		return SuitPentacles
	default:
		return SuitNone
	}
}

// courtRanks maps the named minor ranks to their sort order.
var courtRanks = map[string]int{
	"ACE":    1,
	"PAGE":   11,
	"KNIGHT": 12,
	"QUEEN":  13,
	"KING":   14,
}

// Number derives the ordinal from the card code: 0-21 for major arcana,
// 1-14 for minors (ace=1, page=11, knight=12, queen=13, king=14).
func (c Card) Number() int {
	_, rank, ok := strings.Cut(c.Code, "_")
	if !ok {
		return 0
	}
	if n, ok := courtRanks[rank]; ok {
		return n
	}
	n, err := strconv.Atoi(rank)
	if err != nil {
		return 0
	}
	return n
}
