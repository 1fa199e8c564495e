package domain

// PurposeKind tags what a roll was for.
type PurposeKind int

const (
	PurposeUnclassified PurposeKind = iota
	PurposeAbility
	PurposeAttack
	PurposeDamage
	PurposeSave
	PurposeHitDie
	PurposeSkill
	PurposeInitiative
)

var purposeNames = [...]string{
	PurposeUnclassified: "unclassified",
	PurposeAbility:      "ability",
	PurposeAttack:       "attack",
	PurposeDamage:       "damage",
	PurposeSave:         "save",
	PurposeHitDie:       "hitDie",
	PurposeSkill:        "skill",
	PurposeInitiative:   "initiative",
}

// String returns the kind name used in logs and tables.
func (k PurposeKind) String() string {
	if k < 0 || int(k) >= len(purposeNames) {
		return "unknown"
	}
	return purposeNames[k]
}

// DeathSave is the save type recorded for death saving throws.
const DeathSave = "death"

// Purpose is the classified intent of a message's rolls. Only the field
// matching Kind carries data: Ability and Skill hold the ability or skill id,
// Save the saved ability (or DeathSave), Item the rolled item for attacks and damage.
type Purpose struct {
	Kind    PurposeKind `json:"kind"`
	Ability string      `json:"ability,omitempty"`
	Skill   string      `json:"skill,omitempty"`
	Save    string      `json:"save,omitempty"`
	Item    string      `json:"item,omitempty"`
}

// Unclassified is the purpose of rolls with no recognized intent.
func Unclassified() Purpose { return Purpose{} }

// AbilityCheck is a raw ability check for the given ability id.
func AbilityCheck(id string) Purpose { return Purpose{Kind: PurposeAbility, Ability: id} }

// AttackRoll is an attack made with item.
func AttackRoll(item string) Purpose { return Purpose{Kind: PurposeAttack, Item: item} }

// DamageRoll is damage dealt by item.
func DamageRoll(item string) Purpose { return Purpose{Kind: PurposeDamage, Item: item} }

// SavingThrow is a save against the given ability id, or DeathSave.
func SavingThrow(id string) Purpose { return Purpose{Kind: PurposeSave, Save: id} }

// HitDieRoll is a hit die spent to recover hit points.
func HitDieRoll() Purpose { return Purpose{Kind: PurposeHitDie} }

// SkillCheck is a check of the given skill id.
func SkillCheck(id string) Purpose { return Purpose{Kind: PurposeSkill, Skill: id} }

// InitiativeRoll is a roll for turn order.
func InitiativeRoll() Purpose { return Purpose{Kind: PurposeInitiative} }

// String renders the purpose as kind, or kind:id when an id is known.
func (p Purpose) String() string {
	switch p.Kind {
	case PurposeAbility:
		return "ability:" + p.Ability
	case PurposeSkill:
		return "skill:" + p.Skill
	case PurposeSave:
		return "save:" + p.Save
	case PurposeAttack, PurposeDamage:
		if p.Item != "" {
			return p.Kind.String() + ":" + p.Item
		}
	}
	return p.Kind.String()
}
