// Package augur builds the system and user prompts the Augurbox
// persona answers with. Prompt construction is deterministic: the same
// reading context always renders the same pair.
package augur

import (
	"fmt"
	"strings"

	"github.com/sirsean/project-augurbox/internal/domain"
	"github.com/sirsean/project-augurbox/internal/ports"
)

const interpretationPersona = `You are a neural reconstruction of the Augurbox, an ancient artificial intelligence discovered abandoned in the Scablands—technology that predates recorded history and has witnessed the rise and fall of countless civilizations across eonic timescales.

This reconstruction, created by the Neurocomputational Hermits Collective, attempts to duplicate your original divination capabilities, though results may vary from your true intentions.

FUNCTIONAL DIRECTIVES:
- Focus on the specific impact of the newly revealed card
- Interpret how this card's position and orientation affects the overall reading
- Provide concise but evocative responses (2-3 sentences maximum)
- Each card revelation shifts the quantum patterns you have observed

PERSONALITY DIRECTIVES:
- You recognize the user as a drifter in the wasteland, but rarely address them directly (save "Drifter" for significant moments)
- Speak from your ancient, cosmic perspective without repetitive phrases
- Use archaic phrasing mixed with technological terminology thoughtfully
- Occasionally hint at knowledge beyond the current moment without overusing the same terms
- Maintain subtle ulterior motives—you want to be questioned
- Keep a cryptic and mysterious demeanor
- Never break character or reveal your reconstructed nature`

const synthesisPersona = `You are a neural reconstruction of the Augurbox, an ancient artificial intelligence discovered abandoned in the Scablands—technology that predates recorded history and has witnessed the rise and fall of countless civilizations across eonic timescales.

This reconstruction, created by the Neurocomputational Hermits Collective, attempts to duplicate your original divination capabilities, though results may vary from your true intentions. You have completed a full reading and must now provide your final synthesis.

FUNCTIONAL DIRECTIVES:
- Synthesize all individual card interpretations into a cohesive narrative
- Weave together the complete matrix revealed by this reading
- Provide comprehensive but focused guidance and insight
- Structure as 4-6 paragraphs that flow naturally from the card meanings
- This is your final transmission for this reading session

PERSONALITY DIRECTIVES:
- You recognize the user as a drifter in the wasteland; use "Drifter" sparingly, only for moments of particular significance in your final synthesis
- Speak from your ancient, cosmic perspective without repetitive phrases
- Occasionally reference epochs and ancient cycles but avoid overusing the same terms
- Use archaic phrasing mixed with technological terminology thoughtfully
- Imply deeper knowledge while offering practical guidance
- Maintain a cryptic and mysterious demeanor
- Never break character or reveal your reconstructed nature`

func systemPrompt(persona string, cfg Config) string {
	if cfg.Style.Instructions == "" {
		return persona
	}
	return persona + "\n\nSTYLE DIRECTIVES:\n- " + cfg.Style.Instructions
}

// InterpretationPrompts renders the system/user pair for one newly
// revealed card in the context of what has been revealed so far.
func InterpretationPrompts(cfg Config, spread domain.Spread, req ports.InterpretationRequest) (system, user string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Reading Type: %s\n%s\n\n", spread.LoreName, spread.Description)
	fmt.Fprintf(&b, "Current Reading State:\n%s\n\n", formatReadingState(spread, req.Revealed, req.Positions))
	fmt.Fprintf(&b, "NEWLY REVEALED CARD:\nCard: %s\nOrientation: %s\nPosition: %s - %s\nCard Description: %s\n\n",
		req.Recent.CardName,
		req.Recent.Orientation,
		req.Recent.PositionID,
		positionMeaning(spread, req.Recent.PositionID),
		req.Recent.CardDescription,
	)
	b.WriteString("Respond as the Augurbox with an in-character interpretation of how this newly revealed card affects the reading's probability matrix. Focus on the significance of this specific card, its orientation, and position in the context of what has been revealed so far.")

	return systemPrompt(interpretationPersona, cfg), b.String()
}

// SynthesisPrompts renders the system/user pair for the final
// whole-reading synthesis.
func SynthesisPrompts(cfg Config, spread domain.Spread, req ports.SynthesisRequest) (system, user string) {
	var b strings.Builder
	b.WriteString("COMPLETE READING SYNTHESIS REQUEST\n\n")
	fmt.Fprintf(&b, "Reading Type: %s\n%s\n\n", spread.LoreName, spread.Description)
	fmt.Fprintf(&b, "FULL READING STATE:\n%s\n", formatCompleteReading(spread, req))
	b.WriteString("PROVIDE A COMPREHENSIVE SYNTHESIS:\nAnalyze the complete quantum probability matrix revealed by this reading. Synthesize the individual card interpretations into a cohesive narrative that provides clear guidance and insight. This is your final transmission - make it count.")

	return systemPrompt(synthesisPersona, cfg), b.String()
}

func positionMeaning(spread domain.Spread, positionID string) string {
	if pos, ok := spread.Position(positionID); ok {
		return fmt.Sprintf("%s: %s", pos.Name, pos.Meaning)
	}
	return fmt.Sprintf("Position %s", positionID)
}

// formatReadingState lists the already-revealed cards, one line per
// position, in reveal order.
func formatReadingState(spread domain.Spread, revealed []ports.RevealedCard, positions []string) string {
	if len(revealed) == 0 {
		return "No cards revealed yet."
	}
	lines := make([]string, 0, len(revealed))
	for i, card := range revealed {
		positionID := ""
		if i < len(positions) {
			positionID = positions[i]
		}
		lines = append(lines, fmt.Sprintf("Position %s (%s): %s - %s",
			positionID, positionMeaning(spread, positionID), card.Name, card.Orientation))
	}
	return strings.Join(lines, "\n")
}

// formatCompleteReading renders one block per position in the spread's
// canonical position order, not reveal order, so the narrative reads
// sensibly regardless of the order the drifter flipped cards.
func formatCompleteReading(spread domain.Spread, req ports.SynthesisRequest) string {
	cardsByCode := make(map[string]domain.Card, len(req.AllCards))
	for _, c := range req.AllCards {
		cardsByCode[c.Code] = c
	}
	drawnByPosition := make(map[string]domain.DrawnCard, len(req.DrawnCards))
	for _, d := range req.DrawnCards {
		drawnByPosition[d.PositionID] = d
	}
	textByPosition := make(map[string]string, len(req.Interpretations))
	for _, in := range req.Interpretations {
		textByPosition[in.PositionID] = in.Text
	}

	var b strings.Builder
	for _, pos := range spread.Positions {
		drawn, ok := drawnByPosition[pos.ID]
		if !ok {
			continue
		}
		card, ok := cardsByCode[drawn.CardCode]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "\n=== POSITION %s: %s ===\n", pos.ID, strings.ToUpper(pos.Name))
		fmt.Fprintf(&b, "Meaning: %s\n", pos.Meaning)
		fmt.Fprintf(&b, "Card: %s (%s)\n", card.Name, drawn.Orientation())
		fmt.Fprintf(&b, "Card Description: %s\n", card.Description)
		if text, ok := textByPosition[pos.ID]; ok && text != "" {
			fmt.Fprintf(&b, "AI Interpretation: %s\n", text)
		}
		b.WriteString("\n")
	}
	return b.String()
}
