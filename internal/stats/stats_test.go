package stats

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/d20stats/internal/domain"
	"github.com/soyeahso/d20stats/internal/logging"
)

var base = time.Date(2023, 3, 14, 19, 0, 0, 0, time.UTC)

func d20(kept int) domain.Die {
	return domain.Die{Faces: 20, Number: 1, Results: []domain.DieResult{{Value: kept, Active: true}}}
}

func adv(kept, dropped int) domain.Die {
	return domain.Die{Faces: 20, Number: 2, Advantage: true, Results: []domain.DieResult{
		{Value: kept, Active: true}, {Value: dropped, Active: false},
	}}
}

func disadv(kept, dropped int) domain.Die {
	return domain.Die{Faces: 20, Number: 2, Disadvantage: true, Results: []domain.DieResult{
		{Value: kept, Active: true}, {Value: dropped, Active: false},
	}}
}

func msg(user string, p domain.Purpose, total float64, dice ...domain.Die) *domain.Message {
	return &domain.Message{
		User:      user,
		Timestamp: base,
		Purpose:   p,
		Rolls:     []domain.Roll{{Formula: "test", Total: total, Dice: dice}},
	}
}

func TestComputeNat20Ratio(t *testing.T) {
	var msgs []*domain.Message
	for i := range 10 {
		v := 10
		if i < 3 {
			v = 20
		}
		msgs = append(msgs, msg("Alice", domain.Unclassified(), float64(v), d20(v)))
	}

	r := Compute(msgs, "Alice")
	assert.Equal(t, "Alice", r.Label)
	assert.Equal(t, 10.0, r.Get("d20_roll_count"))
	assert.Equal(t, 3.0, r.Get("nat_20_count"))
	assert.InDelta(t, 0.3, r.Get("nat_20_ratio"), 1e-9)
	assert.InDelta(t, 13.0, r.Get("average_final_d20_roll"), 1e-9)
}

func TestComputeNoD20s(t *testing.T) {
	d6 := domain.Die{Faces: 6, Number: 2, Results: []domain.DieResult{{Value: 3, Active: true}, {Value: 5, Active: true}}}
	r := Compute([]*domain.Message{msg("Bob", domain.DamageRoll("axe"), 8, d6), {User: "Bob", Content: "hello"}}, "Bob")

	for _, name := range MetricNames() {
		if strings.HasSuffix(name, "_ratio") {
			assert.Zero(t, r.Get(name), name)
		}
	}
	assert.Zero(t, r.Get("d20_roll_count"))
	assert.Zero(t, r.Get("average_d20_after_modifiers"))
	assert.Equal(t, 2.0, r.Get("d6_raw_count"))
	assert.InDelta(t, 4.0, r.Get("d6_raw_average"), 1e-9)
}

func TestComputeEmpty(t *testing.T) {
	r := Compute(nil, "Nobody")
	assert.Len(t, r.Metrics, len(MetricNames()))
	for name, v := range r.Metrics {
		assert.Zero(t, v, name)
	}
}

func TestComputePurposes(t *testing.T) {
	msgs := []*domain.Message{
		msg("A", domain.SkillCheck("ste"), 18, adv(15, 3)),
		msg("A", domain.SkillCheck("ste"), 10, d20(7)),
		msg("A", domain.SkillCheck("prc"), 21, d20(20)),
		msg("A", domain.SavingThrow("dex"), 9, disadv(4, 20)),
		msg("A", domain.SavingThrow(domain.DeathSave), 1, d20(1)),
		msg("A", domain.AbilityCheck("str"), 14, d20(12)),
		msg("A", domain.AttackRoll("sword"), 25, adv(20, 20)),
		msg("A", domain.InitiativeRoll(), 16, d20(14)),
		msg("A", domain.Unclassified(), 3, d20(3)),
	}

	r := Compute(msgs, "A")

	assert.Equal(t, 9.0, r.Get("d20_roll_count"))
	assert.Equal(t, 3.0, r.Get("skill_check_count"))
	assert.Equal(t, 2.0, r.Get("saving_throw_count"))
	assert.Equal(t, 1.0, r.Get("ability_check_count"))
	assert.Equal(t, 1.0, r.Get("attack_roll_count"))
	assert.Equal(t, 1.0, r.Get("initiative_roll_count"))
	assert.InDelta(t, 3.0/9.0, r.Get("skill_check_ratio"), 1e-9)

	assert.Equal(t, 2.0, r.Get("advantage_count"))
	assert.Equal(t, 1.0, r.Get("disadvantage_count"))
	assert.Equal(t, 2.0, r.Get("nat_20_count"))
	assert.Equal(t, 1.0, r.Get("nat_1_count"))
	assert.Equal(t, 1.0, r.Get("stolen_nat_20_count"))
	assert.Equal(t, 1.0, r.Get("super_nat_20_count"))

	assert.Equal(t, 2.0, r.Get("ste_skill_count"))
	assert.InDelta(t, 14.0, r.Get("ste_skill_average"), 1e-9)
	assert.Equal(t, 1.0, r.Get("prc_skill_count"))
	assert.Equal(t, 1.0, r.Get("death_save_count"))
	assert.InDelta(t, 1.0, r.Get("death_save_average"), 1e-9)
	assert.Equal(t, 1.0, r.Get("dex_save_count"))
	assert.Equal(t, 1.0, r.Get("str_ability_count"))
	assert.Zero(t, r.Get("wis_ability_count"))

	assert.InDelta(t, 20.0, r.Get("average_attack_before_modifiers"), 1e-9)
	assert.InDelta(t, 25.0, r.Get("average_attack_after_modifiers"), 1e-9)
	assert.InDelta(t, (4.0+1.0)/2, r.Get("average_save_before_modifiers"), 1e-9)
	assert.InDelta(t, 14.0, r.Get("average_initiative_before_modifiers"), 1e-9)

	// 12 d20 faces in total: 3 two-dice rolls and 6 single rolls.
	assert.Equal(t, 12.0, r.Get("d20_raw_count"))
	assert.InDelta(t, float64(15+3+7+20+4+20+1+12+20+20+14+3)/12, r.Get("average_raw_d20_roll"), 1e-9)
	assert.InDelta(t, r.Get("d20_raw_average"), r.Get("average_raw_d20_roll"), 1e-9)

	purposeTotal := r.Get("skill_check_count") + r.Get("ability_check_count") + r.Get("saving_throw_count") +
		r.Get("attack_roll_count") + r.Get("initiative_roll_count")
	assert.LessOrEqual(t, purposeTotal, r.Get("d20_roll_count"))
}

func TestComputeAfterModifiersSumsAllRolls(t *testing.T) {
	m := &domain.Message{
		User: "A",
		Rolls: []domain.Roll{
			{Total: 17, Dice: []domain.Die{d20(12)}},
			{Total: 9, Dice: []domain.Die{{Faces: 8, Number: 1, Results: []domain.DieResult{{Value: 6, Active: true}}}}},
		},
	}
	r := Compute([]*domain.Message{m}, "A")
	assert.InDelta(t, 26.0, r.Get("average_d20_after_modifiers"), 1e-9)
	assert.Equal(t, 1.0, r.Get("d8_raw_count"))
}

func TestMetricNamesMatchCompute(t *testing.T) {
	r := Compute(nil, "x")
	var got []string
	for k := range r.Metrics {
		got = append(got, k)
	}
	want := MetricNames()
	sort.Strings(got)
	sort.Strings(want)
	assert.Equal(t, want, got)
}

func TestFieldMetadata(t *testing.T) {
	meta := FieldMetadata()
	for _, name := range MetricNames() {
		m, ok := meta[name]
		require.True(t, ok, name)
		assert.NotEmpty(t, m.Pretty, name)
		if strings.HasSuffix(name, "_ratio") {
			assert.True(t, m.IsPercent, name)
		}
		if IsCount(name) {
			assert.Contains(t, meta, name+PrevSuffix)
		}
	}
	assert.Equal(t, "D20s Rolled", meta["d20_raw_count"].Pretty)
	assert.Equal(t, "# Stealth", meta["ste_skill_count"].Pretty)
	assert.Equal(t, "Avg Death Save", meta["death_save_average"].Pretty)
	assert.Equal(t, "Average Raw D347", meta["d347_raw_average"].Pretty)
}

func TestIsCount(t *testing.T) {
	assert.True(t, IsCount("nat_20_count"))
	assert.True(t, IsCount("d20_raw_count"))
	assert.False(t, IsCount("nat_20_ratio"))
	assert.False(t, IsCount("nat_20_count_prev"))
}

func sessionMessages(users ...string) []*domain.Message {
	out := make([]*domain.Message, len(users))
	for i, u := range users {
		out[i] = msg(u, domain.Unclassified(), 10, d20(10))
	}
	return out
}

func TestBuilderBuild(t *testing.T) {
	b := NewBuilder("salocaia", []string{"Alice", "Bob"}, logging.New(nil, "silent"))
	b.Now = func() time.Time { return base }
	b.Concurrency = 2

	all := sessionMessages("Gamemaster", "Alice", "Alice", "Bob", "Gamemaster", "Alice")
	prev := domain.NewSession(all[3])
	prev.Add(all[4])
	prev.Add(all[5])

	bundle, err := b.Build(context.Background(), all, prev)
	require.NoError(t, err)

	assert.Equal(t, "salocaia", bundle.World)
	assert.Equal(t, base, bundle.GeneratedAt)
	assert.Equal(t, []string{"All", "All Players", "Gamemaster", "Alice", "Bob"}, bundle.Labels())
	require.Len(t, bundle.Previous, 5)
	require.NotNil(t, bundle.Session)
	assert.Equal(t, 3, bundle.Session.Count)

	expect := map[string][2]float64{
		"All":         {6, 3},
		"All Players": {4, 2},
		"Gamemaster":  {2, 1},
		"Alice":       {3, 1},
		"Bob":         {1, 1},
	}
	for _, r := range bundle.Reports {
		want := expect[r.Label]
		assert.Equal(t, want[0], r.Get("d20_roll_count"), r.Label)
		assert.Equal(t, want[1], r.Get("d20_roll_count_prev"), r.Label)
		assert.NotContains(t, r.Metrics, "nat_20_ratio_prev")
	}
	assert.NotEmpty(t, bundle.FieldMetadata)
}

func TestBuilderNoPreviousSession(t *testing.T) {
	b := NewBuilder("w", nil, logging.New(nil, "silent"))
	bundle, err := b.Build(context.Background(), sessionMessages("Alice"), nil)
	require.NoError(t, err)
	assert.Nil(t, bundle.Previous)
	assert.Nil(t, bundle.Session)
	for _, r := range bundle.Reports {
		for k := range r.Metrics {
			assert.False(t, strings.HasSuffix(k, PrevSuffix), k)
		}
	}
}

func TestBuilderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewBuilder("w", []string{"Alice"}, logging.New(nil, "silent"))
	_, err := b.Build(ctx, sessionMessages("Alice"), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMergePreviousMismatch(t *testing.T) {
	err := MergePrevious([]domain.Report{{Label: "All"}}, nil)
	assert.Error(t, err)

	err = MergePrevious(
		[]domain.Report{{Label: "All", Metrics: map[string]float64{}}},
		[]domain.Report{{Label: "Gamemaster", Metrics: map[string]float64{}}},
	)
	assert.Error(t, err)
}
