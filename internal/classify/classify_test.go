package classify

import (
	"encoding/json"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/d20stats/internal/domain"
	"github.com/soyeahso/d20stats/internal/logging"
)

const advantageRoll = `{
	"class": "D20Roll",
	"formula": "2d20kh + 5",
	"total": 22,
	"terms": [
		{"class": "Die", "number": 2, "faces": 20, "modifiers": ["kh"],
		 "options": {"advantage": true},
		 "results": [{"result": 17, "active": true}, {"result": 4, "active": false, "discarded": true}]},
		{"class": "OperatorTerm", "operator": "+"},
		{"class": "NumericTerm", "number": 5}
	]
}`

func strPtr(s string) *string { return &s }

func TestDecodeRollObjectAndString(t *testing.T) {
	fromObject, err := DecodeRoll(json.RawMessage(advantageRoll))
	require.NoError(t, err)

	encoded, err := json.Marshal(advantageRoll)
	require.NoError(t, err)
	fromString, err := DecodeRoll(encoded)
	require.NoError(t, err)

	assert.Equal(t, fromObject, fromString)
	assert.Equal(t, "D20Roll", fromObject.Class)
	assert.Equal(t, "2d20kh + 5", fromObject.Formula)
	assert.InDelta(t, 22.0, fromObject.Total, 1e-9)
	require.Len(t, fromObject.Dice, 1)

	die := fromObject.Dice[0]
	assert.Equal(t, 20, die.Faces)
	assert.True(t, die.Advantage)
	assert.Equal(t, []int{17}, die.ActiveResults())
	assert.Equal(t, []int{4}, die.InactiveResults())
}

func TestDecodeRollMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"bad string payload", `"{not json"`},
		{"bad object", `{"terms": 5}`},
		{"result count mismatch", `{"terms":[{"class":"Die","number":2,"faces":20,"results":[{"result":3,"active":true}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRoll(json.RawMessage(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestDecodeRollCountMismatchIsDieError(t *testing.T) {
	_, err := DecodeRoll(json.RawMessage(`{"terms":[{"class":"Die","number":1,"faces":6,"results":[]}]}`))
	assert.ErrorIs(t, err, domain.ErrDieResultCount)
}

func TestPurpose(t *testing.T) {
	tests := []struct {
		name  string
		flags string
		want  domain.Purpose
	}{
		{"none", ``, domain.Unclassified()},
		{"empty", `{}`, domain.Unclassified()},
		{"ability", `{"dnd5e":{"roll":{"type":"ability","abilityId":"str"}}}`, domain.AbilityCheck("str")},
		{"skill", `{"dnd5e":{"roll":{"type":"skill","skillId":"ste"}}}`, domain.SkillCheck("ste")},
		{"save abilityId", `{"dnd5e":{"roll":{"type":"save","abilityId":"dex"}}}`, domain.SavingThrow("dex")},
		{"save ability fallback", `{"dnd5e":{"roll":{"type":"save","ability":"wis"}}}`, domain.SavingThrow("wis")},
		{"death", `{"dnd5e":{"roll":{"type":"death"}}}`, domain.SavingThrow("death")},
		{"hit die", `{"dnd5e":{"roll":{"type":"hitDie"}}}`, domain.HitDieRoll()},
		{"attack itemId", `{"dnd5e":{"roll":{"type":"attack","itemId":"abc"}}}`, domain.AttackRoll("abc")},
		{"attack item", `{"dnd5e":{"roll":{"type":"attack","item":"def"}}}`, domain.AttackRoll("def")},
		{"attack item.id", `{"dnd5e":{"roll":{"type":"attack"},"item":{"id":"ghi"}}}`, domain.AttackRoll("ghi")},
		{"damage no item", `{"dnd5e":{"roll":{"type":"damage"}}}`, domain.DamageRoll("")},
		{"initiative", `{"core":{"initiativeRoll":true}}`, domain.InitiativeRoll()},
		{"initiative false", `{"core":{"initiativeRoll":false}}`, domain.Unclassified()},
		{"system wins over core", `{"dnd5e":{"roll":{"type":"skill","skillId":"prc"}},"core":{"initiativeRoll":true}}`, domain.SkillCheck("prc")},
		{"unknown type", `{"dnd5e":{"roll":{"type":"tool"}}}`, domain.Unclassified()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Purpose(json.RawMessage(tt.flags)))
		})
	}
}

func TestBuildSkips(t *testing.T) {
	_, ok, err := Build(domain.RawRecord{User: "", Content: "hi"})
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = Build(domain.RawRecord{User: "Alice", Deleted: true})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBuild(t *testing.T) {
	rec := domain.RawRecord{
		User:      "Alice",
		Alias:     strPtr("Thorn"),
		Timestamp: 1678820482999,
		Content:   "Stealth check",
		Rolls:     []json.RawMessage{json.RawMessage(advantageRoll)},
		Flags:     json.RawMessage(`{"dnd5e":{"roll":{"type":"skill","skillId":"ste"}}}`),
	}

	msg, ok, err := Build(rec)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Alice", msg.User)
	assert.Equal(t, "Thorn", msg.Alias)
	assert.Equal(t, int64(1678820482), msg.Timestamp.Unix())
	assert.True(t, msg.IsSkillCheck())
	assert.True(t, msg.HasD20())
}

func TestBuildAllSortsAndCounts(t *testing.T) {
	c := New(logging.New(nil, "silent"))
	recs := []domain.RawRecord{
		{User: "B", Timestamp: 3000, Content: "third"},
		{User: "A", Timestamp: 1000, Content: "first"},
		{User: "", Timestamp: 500},
		{User: "C", Timestamp: 1000, Content: "second"},
		{User: "D", Timestamp: 200, Deleted: true},
	}

	msgs, sum, err := c.BuildAll(recs)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, []string{"first", "second", "third"}, []string{msgs[0].Content, msgs[1].Content, msgs[2].Content})
	assert.Equal(t, 5, sum.Records)
	assert.Equal(t, 3, sum.Messages)
	assert.Equal(t, 1, sum.Deleted)
	assert.Equal(t, 1, sum.Anonymous)
	assert.Equal(t, 2, sum.Skipped())
}

func TestBuildAllAbortsOnMalformed(t *testing.T) {
	c := New(logging.New(nil, "silent"))
	recs := make([]domain.RawRecord, 0, 4)
	for i := range 3 {
		recs = append(recs, domain.RawRecord{ID: strconv.Itoa(i), User: "A", Timestamp: int64(i)})
	}
	recs = append(recs, domain.RawRecord{ID: "broken", User: "A", Rolls: []json.RawMessage{json.RawMessage(`"{oops"`)}})

	msgs, _, err := c.BuildAll(recs)
	require.Error(t, err)
	assert.Nil(t, msgs)

	var malformed *MalformedRecordError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, 3, malformed.Index)
	assert.Equal(t, "broken", malformed.ID)
	assert.Contains(t, err.Error(), "broken")
}
