package stats

import (
	"fmt"
	"strings"

	"github.com/soyeahso/d20stats/internal/domain"
)

// PrevSuffix marks a metric copied from the previous-session report.
const PrevSuffix = "_prev"

var metricNames = buildMetricNames()

func buildMetricNames() []string {
	names := []string{
		"d20_roll_count",
		"advantage_count", "disadvantage_count",
		"advantage_ratio", "disadvantage_ratio",
		"skill_check_count", "skill_check_ratio",
		"ability_check_count", "ability_check_ratio",
		"saving_throw_count", "saving_throw_ratio",
		"attack_roll_count", "attack_roll_ratio",
		"initiative_roll_count", "initiative_roll_ratio",
		"nat_20_count", "nat_20_ratio",
		"nat_1_count", "nat_1_ratio",
		"stolen_nat_20_count", "super_nat_20_count", "disadvantage_nat_20_count",
		"dropped_nat_1_count", "super_nat_1_count", "advantage_nat_1_count",
		"average_raw_d20_roll", "average_final_d20_roll", "average_d20_after_modifiers",
	}
	for _, p := range populations {
		names = append(names, "average_"+p.name+"_before_modifiers")
	}
	for _, p := range populations {
		names = append(names, "average_"+p.name+"_after_modifiers")
	}
	for _, group := range []struct {
		kind string
		ids  []string
	}{{"save", SaveIDs}, {"ability", AbilityIDs}, {"skill", SkillIDs}} {
		for _, id := range group.ids {
			names = append(names, id+"_"+group.kind+"_average", id+"_"+group.kind+"_count")
		}
	}
	for _, faces := range RawDieFaces {
		names = append(names, fmt.Sprintf("d%d_raw_count", faces), fmt.Sprintf("d%d_raw_average", faces))
	}
	return names
}

// MetricNames returns every metric a report carries, in display order.
func MetricNames() []string {
	return append([]string(nil), metricNames...)
}

// IsCount reports whether a metric is compared against the previous session.
func IsCount(name string) bool {
	return strings.Contains(name, "count") && !strings.HasSuffix(name, PrevSuffix)
}

var skillNames = map[string]string{
	"acr": "Acrobatics", "ani": "Animal Handling", "arc": "Arcana", "ath": "Athletics",
	"dec": "Deception", "his": "History", "ins": "Insight", "itm": "Intimidation",
	"inv": "Investigation", "med": "Medicine", "nat": "Nature", "prc": "Perception",
	"prf": "Performance", "per": "Persuasion", "rel": "Religion", "slt": "Sleight of Hand",
	"ste": "Stealth", "sur": "Survival",
}

var abilityNames = map[string]string{
	"str": "Strength", "dex": "Dexterity", "con": "Constitution",
	"wis": "Wisdom", "int": "Intelligence", "cha": "Charisma", domain.DeathSave: "Death",
}

var fieldMetadata = map[string]domain.FieldMeta{
	"d20_raw_count":   {Pretty: "D20s Rolled", Explanation: "Raw number of d20s rolled, including those dropped"},
	"d20_roll_count":  {Pretty: "D20 Rolls", Explanation: "The number of rolls that include a d20"},
	"d20_raw_average": {Pretty: "Average Raw D20", Explanation: "Average value of d20s rolled, including those dropped"},
	"d100_raw_count":  {Pretty: "D100s Rolled"},
	"d12_raw_count":   {Pretty: "D12s Rolled"},
	"d10_raw_count":   {Pretty: "D10s Rolled"},
	"d10_raw_average": {Pretty: "Average Raw D10", Explanation: "Average value of d10s rolled, including those dropped"},
	"d8_raw_count":    {Pretty: "D8s Rolled"},
	"d8_raw_average":  {Pretty: "Average Raw D8", Explanation: "Average value of d8s rolled, including those dropped"},
	"d6_raw_count":    {Pretty: "D6s Rolled"},
	"d6_raw_average":  {Pretty: "Average Raw D6", Explanation: "Average value of d6s rolled, including those dropped"},
	"d4_raw_count":    {Pretty: "D4s Rolled"},
	"d4_raw_average":  {Pretty: "Average Raw D4", Explanation: "Average value of d4s rolled, including those dropped"},
	"d347_raw_count":  {Pretty: "D347s Rolled"},

	"attack_roll_ratio":     {Pretty: "% Attacks", IsPercent: true},
	"saving_throw_ratio":    {Pretty: "% Saves", IsPercent: true},
	"ability_check_ratio":   {Pretty: "% Ability Checks", IsPercent: true},
	"skill_check_ratio":     {Pretty: "% Skill Checks", IsPercent: true},
	"initiative_roll_ratio": {Pretty: "% Init Rolls", IsPercent: true},
	"attack_roll_count":     {Pretty: "# Attacks"},
	"saving_throw_count":    {Pretty: "# Saves"},
	"ability_check_count":   {Pretty: "# Ability Checks"},
	"skill_check_count":     {Pretty: "# Skill Checks"},
	"initiative_roll_count": {Pretty: "# Init Rolls"},
	"advantage_count":       {Pretty: "# Advantage"},
	"advantage_ratio":       {Pretty: "% Advantage", IsPercent: true},
	"disadvantage_count":    {Pretty: "# Disadvantage"},
	"disadvantage_ratio":    {Pretty: "% Disadvantage", IsPercent: true},

	"nat_20_count": {Pretty: "# Nat 20s", Explanation: "After advantage or disadvantage, was the number on the die a 20?"},
	"nat_20_ratio": {Pretty: "% Nat 20s", Explanation: "After advantage or disadvantage, was the number on the die a 20?", IsPercent: true},
	"nat_1_count":  {Pretty: "# Nat 1s", Explanation: "After advantage or disadvantage, was the number on the die a 1?"},
	"nat_1_ratio":  {Pretty: "% Nat 1s", Explanation: "After advantage or disadvantage, was the number on the die a 1?", IsPercent: true},

	"stolen_nat_20_count":       {Pretty: "Stolen Nat 20s", Explanation: "Number of times that a natural 20 was lost to disadvantage"},
	"super_nat_20_count":        {Pretty: "Super Nat 20s", Explanation: "Number of times that with advantage, both dice were 20s"},
	"disadvantage_nat_20_count": {Pretty: "Disadvantage Nat 20s", Explanation: "Number of times that even with disadvantage, the result was a 20"},
	"dropped_nat_1_count":       {Pretty: "Dropped Nat 1s", Explanation: "Number of times that a natural 1 was avoided because of advantage"},
	"super_nat_1_count":         {Pretty: "Super Nat 1s", Explanation: "Number of times that with disadvantage, both dice were 1s"},
	"advantage_nat_1_count":     {Pretty: "Advantage Nat 1s", Explanation: "Number of times that even with advantage, the result was a 1 (oof)"},

	"average_raw_d20_roll":        {Pretty: "Average Raw D20 Roll", Explanation: "Average of every d20 face rolled, kept or dropped"},
	"average_final_d20_roll":      {Pretty: "Average Kept D20", Explanation: "Average d20 face after advantage or disadvantage"},
	"average_d20_after_modifiers": {Pretty: "Average D20 Total", Explanation: "Average total of rolls that include a d20"},
}

// FieldMetadata returns display metadata for every metric, including the
// previous-session copies of the count metrics.
func FieldMetadata() map[string]domain.FieldMeta {
	out := make(map[string]domain.FieldMeta, len(metricNames)*2)
	for _, name := range metricNames {
		meta := describe(name)
		out[name] = meta
		if IsCount(name) {
			out[name+PrevSuffix] = domain.FieldMeta{
				Pretty:      meta.Pretty + " (last session)",
				Explanation: "Previous session value of " + name,
			}
		}
	}
	return out
}

func describe(name string) domain.FieldMeta {
	if meta, ok := fieldMetadata[name]; ok {
		return meta
	}
	for _, p := range populations {
		title := strings.ToUpper(p.name[:1]) + p.name[1:]
		switch name {
		case "average_" + p.name + "_before_modifiers":
			return domain.FieldMeta{Pretty: "Avg " + title + " (raw)", Explanation: "Average kept d20 before modifiers"}
		case "average_" + p.name + "_after_modifiers":
			return domain.FieldMeta{Pretty: "Avg " + title + " (total)", Explanation: "Average roll total after modifiers"}
		}
	}

	id, rest, ok := strings.Cut(name, "_")
	if !ok {
		return domain.FieldMeta{Pretty: name}
	}
	kind, stat, _ := strings.Cut(rest, "_")
	label := abilityNames[id]
	if kind == "skill" {
		label = skillNames[id]
	}
	if label == "" {
		label = strings.ToUpper(id)
	}

	switch kind + "_" + stat {
	case "save_count":
		return domain.FieldMeta{Pretty: "# " + label + " Saves"}
	case "save_average":
		return domain.FieldMeta{Pretty: "Avg " + label + " Save"}
	case "ability_count":
		return domain.FieldMeta{Pretty: "# " + label + " Checks"}
	case "ability_average":
		return domain.FieldMeta{Pretty: "Avg " + label + " Check"}
	case "skill_count":
		return domain.FieldMeta{Pretty: "# " + label}
	case "skill_average":
		return domain.FieldMeta{Pretty: "Avg " + label}
	case "raw_count":
		return domain.FieldMeta{Pretty: label + "s Rolled"}
	case "raw_average":
		return domain.FieldMeta{Pretty: "Average Raw " + label}
	}
	return domain.FieldMeta{Pretty: name}
}
