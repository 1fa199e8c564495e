package classify

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/tidwall/gjson"

	"github.com/soyeahso/d20stats/internal/domain"
)

// DieTermClasses lists the term class names that carry dice.
var DieTermClasses = []string{"Die", "D20Die"}

type rollJSON struct {
	Class   string            `json:"class"`
	Formula string            `json:"formula"`
	Total   *float64          `json:"total"`
	Terms   []json.RawMessage `json:"terms"`
}

type dieJSON struct {
	Number  int `json:"number"`
	Faces   int `json:"faces"`
	Options struct {
		Advantage    bool `json:"advantage"`
		Disadvantage bool `json:"disadvantage"`
	} `json:"options"`
	Modifiers []string `json:"modifiers"`
	Results   []struct {
		Result int   `json:"result"`
		Active *bool `json:"active"`
	} `json:"results"`
}

// DecodeRoll decodes one roll entry. The entry may be the roll object itself
// or a JSON string holding the encoded object.
func DecodeRoll(raw json.RawMessage) (domain.Roll, error) {
	body := raw
	if s := gjson.ParseBytes(raw); s.Type == gjson.String {
		body = json.RawMessage(s.Str)
	}

	var rj rollJSON
	if err := json.Unmarshal(body, &rj); err != nil {
		return domain.Roll{}, fmt.Errorf("decoding roll: %w", err)
	}

	roll := domain.Roll{Class: rj.Class, Formula: rj.Formula}
	if rj.Total != nil {
		roll.Total = *rj.Total
	}

	for i, term := range rj.Terms {
		class := gjson.GetBytes(term, "class").String()
		if !slices.Contains(DieTermClasses, class) {
			continue
		}
		die, err := decodeDie(term)
		if err != nil {
			return domain.Roll{}, fmt.Errorf("term %d of %q: %w", i, rj.Formula, err)
		}
		roll.Dice = append(roll.Dice, die)
	}
	return roll, nil
}

func decodeDie(term json.RawMessage) (domain.Die, error) {
	var dj dieJSON
	if err := json.Unmarshal(term, &dj); err != nil {
		return domain.Die{}, fmt.Errorf("decoding die: %w", err)
	}

	die := domain.Die{
		Faces:        dj.Faces,
		Number:       dj.Number,
		Advantage:    dj.Options.Advantage,
		Disadvantage: dj.Options.Disadvantage,
		Modifiers:    dj.Modifiers,
		Results:      make([]domain.DieResult, len(dj.Results)),
	}
	for i, r := range dj.Results {
		active := r.Active == nil || *r.Active
		die.Results[i] = domain.DieResult{Value: r.Result, Active: active}
	}
	if err := die.Validate(); err != nil {
		return domain.Die{}, err
	}
	return die, nil
}
