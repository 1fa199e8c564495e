package domain

// Roll is one evaluated formula attached to a message.
type Roll struct {
	Class   string  `json:"class,omitempty"`
	Formula string  `json:"formula"`
	Total   float64 `json:"total"`
	Dice    []Die   `json:"dice"`
}

// DiceOf returns the roll's dice with the given face count.
func (r Roll) DiceOf(faces int) []Die {
	var out []Die
	for _, d := range r.Dice {
		if d.Is(faces) {
			out = append(out, d)
		}
	}
	return out
}
