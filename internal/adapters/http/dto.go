package http

import "github.com/sirsean/project-augurbox/internal/domain"

// Generation endpoint wire shapes. Pointer slices distinguish a field
// that is absent (rejected) from one that is present but empty (the
// first reveal legitimately carries no prior cards).

type WireCard struct {
	Name        string `json:"name"`
	Orientation string `json:"orientation"`
}

type WireCardInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type WireRecentCard struct {
	Card        WireCardInfo `json:"card"`
	Orientation string       `json:"orientation"`
	Position    string       `json:"position"`
}

type ReadingUpdateRequest struct {
	ReadingType string          `json:"readingType" validate:"required"`
	Cards       *[]WireCard     `json:"cards" validate:"required"`
	Positions   *[]string       `json:"positions" validate:"required"`
	RecentCard  *WireRecentCard `json:"recentCard" validate:"required"`
	Stream      bool            `json:"stream"`
}

type WireCatalogCard struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type WireDrawnCard struct {
	CardCode   string `json:"card_code"`
	PositionID string `json:"position_id"`
	IsReversed bool   `json:"is_reversed"`
	IsRevealed bool   `json:"is_revealed"`
}

type WireInterpretation struct {
	PositionID     string `json:"positionId"`
	Interpretation string `json:"interpretation"`
}

type ReadingSynthesisRequest struct {
	ReadingType     string                `json:"readingType" validate:"required"`
	Spread          *domain.Spread        `json:"spread" validate:"required"`
	DrawnCards      *[]WireDrawnCard      `json:"drawnCards" validate:"required"`
	AllCards        *[]WireCatalogCard    `json:"allCards" validate:"required"`
	Interpretations *[]WireInterpretation `json:"interpretations" validate:"required"`
	Stream          bool                  `json:"stream"`
}

// GenerationResponse is the non-streamed success body; exactly one of
// Interpretation/Synthesis is set depending on the endpoint.
type GenerationResponse struct {
	Interpretation string `json:"interpretation,omitempty"`
	Synthesis      string `json:"synthesis,omitempty"`
	ModelUsed      string `json:"modelUsed"`
	Success        bool   `json:"success"`
}

// GenerationError is the failure body of both generation endpoints.
type GenerationError struct {
	Error     string `json:"error"`
	Success   bool   `json:"success"`
	Retryable bool   `json:"retryable"`
}

// ErrorResponse is the plain error shape of the session/catalog routes.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CardResponse is a catalog card with its derived fields.
type CardResponse struct {
	ID          int             `json:"id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Type        domain.CardType `json:"type"`
	Suit        domain.Suit     `json:"suit,omitempty"`
	Number      int             `json:"number"`
}

func toCardResponse(c domain.Card) CardResponse {
	return CardResponse{
		ID:          c.ID,
		Code:        c.Code,
		Name:        c.Name,
		Description: c.Description,
		Type:        c.Type(),
		Suit:        c.Suit(),
		Number:      c.Number(),
	}
}
