package model

import "time"

type DocType string

const (
	DocRider      DocType = "rider"
	DocInputList  DocType = "input_list"
	DocStagePlot  DocType = "stage_plot"
	DocDaySheet   DocType = "day_sheet"
	DocSettlement DocType = "settlement"
	DocAdvance    DocType = "advance"
	// DocGearList is accepted by the importer only; gear lists are stored
	// as advance documents.
	DocGearList DocType = "gear_list"
)

func (t DocType) Valid() bool {
	switch t {
	case DocRider, DocInputList, DocStagePlot, DocDaySheet, DocSettlement, DocAdvance:
		return true
	}
	return false
}

type Document struct {
	ID        string    `json:"id"`
	OwnerID   uint64    `json:"owner_id,omitempty"`
	TourID    string    `json:"tour_id,omitempty"`
	Name      string    `json:"name"`
	Type      DocType   `json:"type"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
