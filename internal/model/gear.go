package model

import "time"

type GearCategory string

const (
	GearAudio       GearCategory = "audio"
	GearMicrophones GearCategory = "microphones"
	GearConsoles    GearCategory = "consoles"
	GearSpeakers    GearCategory = "speakers"
	GearBackline    GearCategory = "backline"
	GearLighting    GearCategory = "lighting"
	GearVideo       GearCategory = "video"
	GearCables      GearCategory = "cables"
	GearStands      GearCategory = "stands"
	GearPower       GearCategory = "power"
	GearRigging     GearCategory = "rigging"
	GearCases       GearCategory = "cases"
	GearOther       GearCategory = "other"
)

var GearCategories = []GearCategory{
	GearAudio, GearMicrophones, GearConsoles, GearSpeakers, GearBackline, GearLighting,
	GearVideo, GearCables, GearStands, GearPower, GearRigging, GearCases, GearOther,
}

func (c GearCategory) Valid() bool {
	for _, v := range GearCategories {
		if c == v {
			return true
		}
	}
	return false
}

type GearCondition string

const (
	ConditionExcellent   GearCondition = "excellent"
	ConditionGood        GearCondition = "good"
	ConditionFair        GearCondition = "fair"
	ConditionNeedsRepair GearCondition = "needs_repair"
)

var conditionCycle = []GearCondition{ConditionExcellent, ConditionGood, ConditionFair, ConditionNeedsRepair}

func (c GearCondition) Valid() bool {
	for _, v := range conditionCycle {
		if c == v {
			return true
		}
	}
	return false
}

// Next cycles excellent → good → fair → needs_repair → excellent.
// Unknown values restart the cycle at excellent.
func (c GearCondition) Next() GearCondition {
	for i, v := range conditionCycle {
		if c == v {
			return conditionCycle[(i+1)%len(conditionCycle)]
		}
	}
	return ConditionExcellent
}

// GearItem is one inventory line. FlyPack marks gear that travels by air.
type GearItem struct {
	ID         string        `json:"id"`
	OwnerID    uint64        `json:"owner_id,omitempty"`
	Name       string        `json:"name"`
	Category   GearCategory  `json:"category"`
	Quantity   int           `json:"quantity"`
	Dimensions string        `json:"dimensions"`
	WeightKg   float64       `json:"weight_kg"`
	Condition  GearCondition `json:"condition"`
	FlyPack    bool          `json:"fly_pack"`
	Location   string        `json:"location"`
	Notes      string        `json:"notes"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Normalize fills defaults for fields the user left empty.
func (g *GearItem) Normalize() {
	if g.Quantity < 1 {
		g.Quantity = 1
	}
	if !g.Category.Valid() {
		g.Category = GearOther
	}
	if !g.Condition.Valid() {
		g.Condition = ConditionGood
	}
}

// Manifest splits inventory into fly pack and ground totals.
type Manifest struct {
	FlyPack ManifestTotals `json:"fly_pack"`
	Ground  ManifestTotals `json:"ground"`
}

type ManifestTotals struct {
	Items    int     `json:"items"`
	Pieces   int     `json:"pieces"`
	WeightKg float64 `json:"weight_kg"`
}

func BuildManifest(items []GearItem) Manifest {
	var m Manifest
	for _, g := range items {
		t := &m.Ground
		if g.FlyPack {
			t = &m.FlyPack
		}
		qty := g.Quantity
		if qty < 1 {
			qty = 1
		}
		t.Items++
		t.Pieces += qty
		t.WeightKg += g.WeightKg * float64(qty)
	}
	return m
}
