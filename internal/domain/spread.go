package domain

// Position is one named slot within a spread. X/Y are layout
// percentages consumed only by rendering clients.
type Position struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Meaning string `json:"meaning" yaml:"meaning"`
	X       int    `json:"x" yaml:"x"`
	Y       int    `json:"y" yaml:"y"`
}

// Spread is a named, ordered set of positions defining a reading
// layout. Position order defines the draw order and the canonical
// order used when the full reading is serialized for synthesis.
type Spread struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	LoreName    string     `json:"lore_name" yaml:"lore_name"`
	Description string     `json:"description" yaml:"description"`
	Positions   []Position `json:"positions" yaml:"positions"`
}

// Position returns the position with the given id.
func (s Spread) Position(id string) (Position, bool) {
	for _, p := range s.Positions {
		if p.ID == id {
			return p, true
		}
	}
	return Position{}, false
}

// PositionIndex returns the canonical index of a position id, or -1.
func (s Spread) PositionIndex(id string) int {
	for i, p := range s.Positions {
		if p.ID == id {
			return i
		}
	}
	return -1
}
