package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGearConditionCycle(t *testing.T) {
	c := ConditionExcellent
	var seen []GearCondition
	for i := 0; i < 4; i++ {
		c = c.Next()
		seen = append(seen, c)
	}
	assert.Equal(t, []GearCondition{ConditionGood, ConditionFair, ConditionNeedsRepair, ConditionExcellent}, seen)
	assert.Equal(t, ConditionExcellent, GearCondition("broken").Next())
}

func TestTourStatusOn(t *testing.T) {
	tour := Tour{Status: TourUpcoming, StartDate: "2026-03-01", EndDate: "2026-03-20"}
	day := func(s string) time.Time {
		d, _ := time.Parse(DateLayout, s)
		return d
	}
	assert.Equal(t, TourUpcoming, tour.StatusOn(day("2026-02-28")))
	assert.Equal(t, TourActive, tour.StatusOn(day("2026-03-01")))
	assert.Equal(t, TourActive, tour.StatusOn(day("2026-03-20")))
	assert.Equal(t, TourCompleted, tour.StatusOn(day("2026-03-21")))

	undated := Tour{Status: TourActive}
	assert.Equal(t, TourActive, undated.StatusOn(day("2030-01-01")))
}

func TestShowCount(t *testing.T) {
	tour := Tour{}
	before := tour.ShowCount()
	tour.Shows = append(tour.Shows, Show{ID: NewID(), Venue: "Paradiso"})
	assert.Equal(t, before+1, tour.ShowCount())
}

func TestSettlementPayout(t *testing.T) {
	s := Settlement{GuaranteeCents: 500000, GrossCents: 2000000, ExpensesCents: 800000, Percentage: 85}
	assert.Equal(t, int64(1200000), s.NetCents())
	assert.Equal(t, int64(1020000), s.PayoutCents())

	s.Percentage = 10
	assert.Equal(t, int64(500000), s.PayoutCents(), "guarantee wins")

	assert.False(t, Settlement{Percentage: 120}.Valid())
}

func TestTimelineValid(t *testing.T) {
	assert.True(t, Timeline{LoadIn: "09:00", Doors: "19:30"}.Valid())
	assert.False(t, Timeline{Curfew: "25:00"}.Valid())
	assert.False(t, Timeline{ShowTime: "8pm"}.Valid())
}

func TestMergeChannels(t *testing.T) {
	chs := MergeChannels([]InputChannel{
		{Number: 1, Source: "Kick In"},
		{Number: 33, Source: "ignored"},
		{Number: 1, Source: "Kick Out"},
	})
	assert.Len(t, chs, ChannelCount)
	assert.Equal(t, "Kick Out", chs[0].Source)
	assert.Equal(t, 32, chs[31].Number)
	assert.True(t, chs[31].Empty())
}

func TestBuildManifest(t *testing.T) {
	m := BuildManifest([]GearItem{
		{Name: "SM58", Quantity: 4, WeightKg: 0.3, FlyPack: true},
		{Name: "Console", Quantity: 1, WeightKg: 40},
		{Name: "Drum riser", WeightKg: 80},
	})
	assert.Equal(t, 1, m.FlyPack.Items)
	assert.Equal(t, 4, m.FlyPack.Pieces)
	assert.InDelta(t, 1.2, m.FlyPack.WeightKg, 0.0001)
	assert.Equal(t, 2, m.Ground.Pieces)
	assert.InDelta(t, 120, m.Ground.WeightKg, 0.0001)
}

func TestTourPatchApply(t *testing.T) {
	tour := Tour{Name: "Spring Run", Status: TourUpcoming, StartDate: "2026-04-01", EndDate: "2026-04-30"}
	name := "  Spring Run II "
	status := TourActive
	assert.NoError(t, TourPatch{Name: &name, Status: &status}.Apply(&tour))
	assert.Equal(t, "Spring Run II", tour.Name)
	assert.Equal(t, TourActive, tour.Status)

	end := "2026-03-01"
	err := TourPatch{EndDate: &end}.Apply(&tour)
	assert.ErrorIs(t, err, ErrInvalid)

	bad := TourStatus("paused")
	assert.ErrorIs(t, TourPatch{Status: &bad}.Apply(&tour), ErrInvalid)
}

func TestGearPatchApply(t *testing.T) {
	g := GearItem{Name: "SM58", Quantity: 1, Condition: ConditionGood, Category: GearMicrophones}
	qty := 0
	assert.ErrorIs(t, GearPatch{Quantity: &qty}.Apply(&g), ErrInvalid)

	fly := true
	loc := " Case 3 "
	assert.NoError(t, GearPatch{FlyPack: &fly, Location: &loc}.Apply(&g))
	assert.True(t, g.FlyPack)
	assert.Equal(t, "Case 3", g.Location)
}
