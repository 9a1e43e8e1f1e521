package daysheet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tourflow/tourflow/internal/model"
)

func TestRender(t *testing.T) {
	tour := model.Tour{Name: "Spring Run", Artist: "The Band"}
	show := model.Show{
		Venue:    "The Fillmore",
		City:     "San Francisco",
		State:    "CA",
		Date:     "2025-03-14",
		Capacity: 1150,
		Timeline: model.Timeline{LoadIn: "14:00", Doors: "19:00", ShowTime: "20:30"},
		Contact:  model.VenueContact{Name: "Pat", Phone: "555-0100"},
		Notes:    "Loading dock on Geary.",
		Settlement: &model.Settlement{
			GuaranteeCents: 500000, GrossCents: 2000000, ExpensesCents: 500000, Percentage: 50,
		},
	}

	out := Render(tour, show)
	for _, want := range []string{
		"The Band / Spring Run",
		"Friday, March 14, 2025",
		"San Francisco, CA",
		"Capacity: 1150",
		"Load In     14:00",
		"Soundcheck  TBD",
		"Show        20:30",
		"CONTACT\n  Pat\n  555-0100",
		"Net         $15000.00",
		"Payout      $7500.00",
		"NOTES\nLoading dock on Geary.",
	} {
		assert.Contains(t, out, want)
	}
}

func TestRenderMinimal(t *testing.T) {
	out := Render(model.Tour{Name: "T", Artist: "A"}, model.Show{Venue: "Club"})
	assert.Contains(t, out, "Curfew      TBD")
	assert.Contains(t, out, "TBD\n\nVENUE")
	assert.NotContains(t, out, "CONTACT")
	assert.NotContains(t, out, "SETTLEMENT")
	assert.NotContains(t, out, "NOTES")
	assert.False(t, strings.Contains(out, "Capacity"))
}

func TestRenderNegativeNet(t *testing.T) {
	show := model.Show{
		Venue:      "Club",
		Settlement: &model.Settlement{GuaranteeCents: 10000, GrossCents: 4950, ExpensesCents: 10500},
	}
	out := Render(model.Tour{}, show)
	assert.Contains(t, out, "Net         -$55.50")
	assert.Contains(t, out, "Payout      $100.00")
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "$0.00", money(0))
	assert.Equal(t, "$12.05", money(1205))
	assert.Equal(t, "-$5.50", money(-550))
}

func TestTitle(t *testing.T) {
	got := Title(model.Tour{}, model.Show{Venue: "Club", Date: "2025-01-02"})
	assert.Equal(t, "Day Sheet - Club - 2025-01-02", got)
}
