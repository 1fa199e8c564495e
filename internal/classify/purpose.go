package classify

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/soyeahso/d20stats/internal/domain"
)

// Purpose maps a record's flag structure to a roll purpose.
// The system namespace (dnd5e.roll.type) wins over the core initiative marker.
func Purpose(flags json.RawMessage) domain.Purpose {
	if len(flags) == 0 {
		return domain.Unclassified()
	}
	doc := gjson.ParseBytes(flags)

	rollType := doc.Get("dnd5e.roll.type")
	if rollType.Exists() {
		return systemPurpose(doc, rollType.String())
	}
	if doc.Get("core.initiativeRoll").Bool() {
		return domain.InitiativeRoll()
	}
	return domain.Unclassified()
}

func systemPurpose(doc gjson.Result, rollType string) domain.Purpose {
	switch rollType {
	case "ability":
		return domain.AbilityCheck(doc.Get("dnd5e.roll.abilityId").String())
	case "attack":
		return domain.AttackRoll(itemRef(doc))
	case "damage":
		return domain.DamageRoll(itemRef(doc))
	case "death":
		return domain.SavingThrow(domain.DeathSave)
	case "hitDie":
		return domain.HitDieRoll()
	case "save":
		return domain.SavingThrow(firstOf(doc, "dnd5e.roll.abilityId", "dnd5e.roll.ability"))
	case "skill":
		return domain.SkillCheck(doc.Get("dnd5e.roll.skillId").String())
	default:
		return domain.Unclassified()
	}
}

func itemRef(doc gjson.Result) string {
	return firstOf(doc, "dnd5e.roll.itemId", "dnd5e.roll.item", "dnd5e.item.id")
}

func firstOf(doc gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := doc.Get(p); v.Exists() {
			return v.String()
		}
	}
	return ""
}
