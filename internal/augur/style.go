package augur

// StyleID names a narration style preset.
type StyleID string

const (
	StyleMinimal   StyleID = "minimal"
	StyleMystical  StyleID = "mystical"
	StyleClassical StyleID = "classical"
	StyleModern    StyleID = "modern"
	StyleCinematic StyleID = "cinematic"
)

// Style adjusts the narration voice without touching code. Selecting a
// style is a pure lookup; nothing here is mutated at runtime.
type Style struct {
	ID           StyleID
	Name         string
	Description  string
	Instructions string
}

var styles = []Style{
	{
		ID:          StyleMinimal,
		Name:        "Minimalist Transmission",
		Description: "Clean, restrained narration focused on the essential reading",
		Instructions: "Favor spare, precise language. Strip ornament down to the " +
			"essential signal; let silence between statements carry weight.",
	},
	{
		ID:          StyleMystical,
		Name:        "Mystical Enhancement",
		Description: "Deeper spiritual undertones and ethereal imagery",
		Instructions: "Amplify mystical and ethereal imagery. Lean on auras, " +
			"drifting energies and luminous signs when describing what the cards reveal.",
	},
	{
		ID:          StyleClassical,
		Name:        "Classical Augury",
		Description: "Traditional divinatory register and symbolism",
		Instructions: "Hold to the traditional divinatory register: omens, portents " +
			"and the classical symbolism of each card, delivered with formal gravity.",
	},
	{
		ID:          StyleModern,
		Name:        "Modern Artistic",
		Description: "Contemporary voice with updated imagery",
		Instructions: "Use a contemporary voice with updated imagery while keeping " +
			"the symbolic meaning of each card intact.",
	},
	{
		ID:          StyleCinematic,
		Name:        "Cinematic Drama",
		Description: "Film-like drama for heightened emotional impact",
		Instructions: "Narrate with cinematic drama: sharp contrasts, charged pauses " +
			"and scene-setting that heightens the emotional stakes of the reading.",
	},
}

// DefaultStyle is applied when no style is configured.
const DefaultStyle = StyleMinimal

// StyleByID returns the preset for id.
func StyleByID(id StyleID) (Style, bool) {
	for _, s := range styles {
		if s.ID == id {
			return s, true
		}
	}
	return Style{}, false
}

// Styles lists every preset.
func Styles() []Style {
	out := make([]Style, len(styles))
	copy(out, styles)
	return out
}

// Config carries the prompt-construction configuration. It is an
// explicit value passed into the builders, not process-wide state.
type Config struct {
	Style Style
}

// DefaultConfig returns a Config with the default style.
func DefaultConfig() Config {
	s, _ := StyleByID(DefaultStyle)
	return Config{Style: s}
}
