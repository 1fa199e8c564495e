package domain

import (
	"errors"
	"fmt"
)

// ErrDieResultCount is returned when a die term's results do not add up to its count.
var ErrDieResultCount = errors.New("die result count does not match number of dice")

// DieResult is one rolled face. Inactive results were dropped by a keep/drop rule.
type DieResult struct {
	Value  int  `json:"result"`
	Active bool `json:"active"`
}

// Die is a single dice term such as 2d20kh or 8d6.
type Die struct {
	Faces        int         `json:"faces"`
	Number       int         `json:"number"`
	Advantage    bool        `json:"advantage,omitempty"`
	Disadvantage bool        `json:"disadvantage,omitempty"`
	Modifiers    []string    `json:"modifiers,omitempty"`
	Results      []DieResult `json:"results"`
}

// Validate checks that every rolled result is accounted for.
func (d Die) Validate() error {
	if len(d.Results) != d.Number {
		return fmt.Errorf("%w: d%d has %d results for %d dice",
			ErrDieResultCount, d.Faces, len(d.Results), d.Number)
	}
	return nil
}

// Is reports whether the die has the given number of faces.
func (d Die) Is(faces int) bool { return d.Faces == faces }

// ActiveResults returns the kept values in roll order.
func (d Die) ActiveResults() []int {
	var out []int
	for _, r := range d.Results {
		if r.Active {
			out = append(out, r.Value)
		}
	}
	return out
}

// InactiveResults returns the dropped values in roll order.
func (d Die) InactiveResults() []int {
	var out []int
	for _, r := range d.Results {
		if !r.Active {
			out = append(out, r.Value)
		}
	}
	return out
}

// Values returns every rolled value, kept or dropped.
func (d Die) Values() []int {
	out := make([]int, len(d.Results))
	for i, r := range d.Results {
		out[i] = r.Value
	}
	return out
}

// pair returns the first active and first inactive value of a two-die keep/drop roll.
func (d Die) pair() (active, inactive int, ok bool) {
	if d.Number != 2 {
		return 0, 0, false
	}
	a, i := d.ActiveResults(), d.InactiveResults()
	if len(a) != 1 || len(i) != 1 {
		return 0, 0, false
	}
	return a[0], i[0], true
}

func (d Die) firstActive() (int, bool) {
	for _, r := range d.Results {
		if r.Active {
			return r.Value, true
		}
	}
	return 0, false
}

// IsNat20 reports a kept natural 20.
func (d Die) IsNat20() bool {
	v, ok := d.firstActive()
	return ok && v == 20
}

// IsNat1 reports a kept natural 1.
func (d Die) IsNat1() bool {
	v, ok := d.firstActive()
	return ok && v == 1
}

// IsStolenNat20 reports a 20 lost to disadvantage.
func (d Die) IsStolenNat20() bool {
	a, i, ok := d.pair()
	return ok && d.Disadvantage && a != 20 && i == 20
}

// IsSuperNat20 reports double 20s rolled with advantage.
func (d Die) IsSuperNat20() bool {
	a, i, ok := d.pair()
	return ok && d.Advantage && a == 20 && i == 20
}

// IsDisadvantageNat20 reports double 20s rolled with disadvantage.
func (d Die) IsDisadvantageNat20() bool {
	a, i, ok := d.pair()
	return ok && d.Disadvantage && a == 20 && i == 20
}

// IsDroppedNat1 reports a 1 discarded thanks to advantage.
func (d Die) IsDroppedNat1() bool {
	a, i, ok := d.pair()
	return ok && d.Advantage && a != 1 && i == 1
}

// IsSuperNat1 reports double 1s rolled with disadvantage.
func (d Die) IsSuperNat1() bool {
	a, i, ok := d.pair()
	return ok && d.Disadvantage && a == 1 && i == 1
}

// IsAdvantageNat1 reports double 1s rolled with advantage.
func (d Die) IsAdvantageNat1() bool {
	a, i, ok := d.pair()
	return ok && d.Advantage && a == 1 && i == 1
}
