// Package stats computes the per-slice dice statistics reports.
package stats

import (
	"fmt"

	"github.com/soyeahso/d20stats/internal/domain"
)

var (
	// SaveIDs are the saving throw types broken out individually.
	SaveIDs = []string{"str", "dex", "con", "wis", "int", "cha", domain.DeathSave}
	// AbilityIDs are the ability check types broken out individually.
	AbilityIDs = []string{"str", "dex", "con", "wis", "int", "cha"}
	// SkillIDs are the skill check types broken out individually.
	SkillIDs = []string{
		"acr", "ani", "arc", "ath", "dec", "his", "ins", "itm", "inv",
		"med", "nat", "prc", "prf", "per", "rel", "slt", "ste", "sur",
	}
	// RawDieFaces are the die sizes with raw count and average metrics.
	RawDieFaces = []int{347, 100, 20, 12, 10, 8, 6, 4}
)

// population is one purpose-specific subset of the d20 messages.
type population struct {
	name string
	keep func(*domain.Message) bool
}

var populations = []population{
	{"attack", (*domain.Message).IsAttack},
	{"initiative", (*domain.Message).IsInitiative},
	{"save", (*domain.Message).IsSavingThrow},
	{"skill", (*domain.Message).IsSkillCheck},
	{"ability", (*domain.Message).IsAbilityCheck},
}

// Compute builds the report for one already filtered message slice.
// Purpose counts, natural outcomes and averages are taken over the messages
// containing a d20; raw die statistics cover every message.
func Compute(msgs []*domain.Message, label string) domain.Report {
	m := make(map[string]float64, len(metricNames))

	d20Msgs := where(msgs, (*domain.Message).HasD20)
	d20s := diceOf(msgs, 20)
	rolls := len(d20Msgs)

	saves := where(d20Msgs, (*domain.Message).IsSavingThrow)
	skills := where(d20Msgs, (*domain.Message).IsSkillCheck)
	abilities := where(d20Msgs, (*domain.Message).IsAbilityCheck)
	attacks := where(d20Msgs, (*domain.Message).IsAttack)
	initiative := where(d20Msgs, (*domain.Message).IsInitiative)

	adv := countDice(d20s, func(d domain.Die) bool { return d.Advantage })
	disadv := countDice(d20s, func(d domain.Die) bool { return d.Disadvantage })
	nat20 := countDice(d20s, domain.Die.IsNat20)
	nat1 := countDice(d20s, domain.Die.IsNat1)

	m["d20_roll_count"] = float64(rolls)
	m["advantage_count"] = float64(adv)
	m["disadvantage_count"] = float64(disadv)
	m["advantage_ratio"] = ratio(adv, rolls)
	m["disadvantage_ratio"] = ratio(disadv, rolls)
	m["skill_check_count"] = float64(len(skills))
	m["skill_check_ratio"] = ratio(len(skills), rolls)
	m["ability_check_count"] = float64(len(abilities))
	m["ability_check_ratio"] = ratio(len(abilities), rolls)
	m["saving_throw_count"] = float64(len(saves))
	m["saving_throw_ratio"] = ratio(len(saves), rolls)
	m["attack_roll_count"] = float64(len(attacks))
	m["attack_roll_ratio"] = ratio(len(attacks), rolls)
	m["initiative_roll_count"] = float64(len(initiative))
	m["initiative_roll_ratio"] = ratio(len(initiative), rolls)

	m["nat_20_count"] = float64(nat20)
	m["nat_20_ratio"] = ratio(nat20, rolls)
	m["nat_1_count"] = float64(nat1)
	m["nat_1_ratio"] = ratio(nat1, rolls)
	m["stolen_nat_20_count"] = float64(countDice(d20s, domain.Die.IsStolenNat20))
	m["super_nat_20_count"] = float64(countDice(d20s, domain.Die.IsSuperNat20))
	m["disadvantage_nat_20_count"] = float64(countDice(d20s, domain.Die.IsDisadvantageNat20))
	m["dropped_nat_1_count"] = float64(countDice(d20s, domain.Die.IsDroppedNat1))
	m["super_nat_1_count"] = float64(countDice(d20s, domain.Die.IsSuperNat1))
	m["advantage_nat_1_count"] = float64(countDice(d20s, domain.Die.IsAdvantageNat1))

	m["average_raw_d20_roll"] = averageRaw(d20s)
	m["average_final_d20_roll"] = averageKept(d20Msgs)
	m["average_d20_after_modifiers"] = averageTotal(d20Msgs)

	for _, p := range populations {
		sub := where(d20Msgs, p.keep)
		m["average_"+p.name+"_before_modifiers"] = averageKept(sub)
		m["average_"+p.name+"_after_modifiers"] = averageTotal(sub)
	}

	breakdown(m, saves, SaveIDs, "save", (*domain.Message).SaveType)
	breakdown(m, abilities, AbilityIDs, "ability", (*domain.Message).AbilityType)
	breakdown(m, skills, SkillIDs, "skill", (*domain.Message).SkillType)

	for _, faces := range RawDieFaces {
		dice := diceOf(msgs, faces)
		m[fmt.Sprintf("d%d_raw_count", faces)] = float64(countResults(dice))
		m[fmt.Sprintf("d%d_raw_average", faces)] = averageRaw(dice)
	}

	return domain.Report{Label: label, Metrics: m}
}

// breakdown adds {id}_{kind}_count and {id}_{kind}_average for each id.
func breakdown(m map[string]float64, msgs []*domain.Message, ids []string, kind string, key func(*domain.Message) string) {
	for _, id := range ids {
		sub := where(msgs, func(msg *domain.Message) bool { return key(msg) == id })
		m[id+"_"+kind+"_count"] = float64(len(sub))
		m[id+"_"+kind+"_average"] = averageTotal(sub)
	}
}

func where(msgs []*domain.Message, keep func(*domain.Message) bool) []*domain.Message {
	var out []*domain.Message
	for _, m := range msgs {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

func diceOf(msgs []*domain.Message, faces int) []domain.Die {
	var out []domain.Die
	for _, m := range msgs {
		out = append(out, m.DiceOf(faces)...)
	}
	return out
}

func countDice(dice []domain.Die, pred func(domain.Die) bool) int {
	n := 0
	for _, d := range dice {
		if pred(d) {
			n++
		}
	}
	return n
}

func countResults(dice []domain.Die) int {
	n := 0
	for _, d := range dice {
		n += len(d.Results)
	}
	return n
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

// averageRaw averages every rolled value, kept or dropped.
func averageRaw(dice []domain.Die) float64 {
	sum, n := 0, 0
	for _, d := range dice {
		for _, v := range d.Values() {
			sum += v
			n++
		}
	}
	return ratio(sum, n)
}

// averageKept averages the first kept value of each d20.
func averageKept(msgs []*domain.Message) float64 {
	sum, n := 0, 0
	for _, d := range diceOf(msgs, 20) {
		if a := d.ActiveResults(); len(a) > 0 {
			sum += a[0]
			n++
		}
	}
	return ratio(sum, n)
}

// averageTotal averages the summed roll totals per message.
func averageTotal(msgs []*domain.Message) float64 {
	if len(msgs) == 0 {
		return 0
	}
	var sum float64
	for _, m := range msgs {
		sum += m.RollTotal()
	}
	return sum / float64(len(msgs))
}
