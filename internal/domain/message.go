package domain

import "time"

// Message is one classified chat record.
type Message struct {
	User      string    `json:"user"`
	Alias     string    `json:"alias,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Content   string    `json:"content"`
	Rolls     []Roll    `json:"rolls"`
	Purpose   Purpose   `json:"purpose"`
}

// Dice returns every die of every roll, in order.
func (m *Message) Dice() []Die {
	var out []Die
	for _, r := range m.Rolls {
		out = append(out, r.Dice...)
	}
	return out
}

// DiceOf returns the message's dice with the given face count.
func (m *Message) DiceOf(faces int) []Die {
	var out []Die
	for _, r := range m.Rolls {
		out = append(out, r.DiceOf(faces)...)
	}
	return out
}

// HasD20 reports whether any roll contains a d20.
func (m *Message) HasD20() bool {
	for _, r := range m.Rolls {
		for _, d := range r.Dice {
			if d.Is(20) {
				return true
			}
		}
	}
	return false
}

// HasRolls reports whether the message carries any roll.
func (m *Message) HasRolls() bool { return len(m.Rolls) > 0 }

// RollTotal sums the totals of every roll.
func (m *Message) RollTotal() float64 {
	var sum float64
	for _, r := range m.Rolls {
		sum += r.Total
	}
	return sum
}

// IsSavingThrow reports whether the message is a saving throw, death saves included.
func (m *Message) IsSavingThrow() bool { return m.Purpose.Kind == PurposeSave }

// IsDeathSave reports whether the message is a death saving throw.
func (m *Message) IsDeathSave() bool { return m.IsSavingThrow() && m.Purpose.Save == DeathSave }

// IsSkillCheck reports whether the message is a skill check.
func (m *Message) IsSkillCheck() bool { return m.Purpose.Kind == PurposeSkill }

// IsAbilityCheck reports whether the message is a raw ability check.
func (m *Message) IsAbilityCheck() bool { return m.Purpose.Kind == PurposeAbility }

// IsAttack reports whether the message is an attack roll.
func (m *Message) IsAttack() bool { return m.Purpose.Kind == PurposeAttack }

// IsDamage reports whether the message is a damage roll.
func (m *Message) IsDamage() bool { return m.Purpose.Kind == PurposeDamage }

// IsHitDie reports whether the message spends a hit die.
func (m *Message) IsHitDie() bool { return m.Purpose.Kind == PurposeHitDie }

// IsInitiative reports whether the message rolls initiative.
func (m *Message) IsInitiative() bool { return m.Purpose.Kind == PurposeInitiative }

// SaveType is the saved ability id, empty unless the message is a saving throw.
func (m *Message) SaveType() string { return m.Purpose.Save }

// SkillType is the skill id, empty unless the message is a skill check.
func (m *Message) SkillType() string { return m.Purpose.Skill }

// AbilityType is the ability id, empty unless the message is an ability check.
func (m *Message) AbilityType() string { return m.Purpose.Ability }

// ItemRef is the rolled item for attack and damage messages.
func (m *Message) ItemRef() string { return m.Purpose.Item }

// Speaker is the alias when present, otherwise the user.
func (m *Message) Speaker() string {
	if m.Alias != "" {
		return m.Alias
	}
	return m.User
}
