package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is wrapped by every patch validation failure.
var ErrInvalid = errors.New("invalid value")

func invalid(field string) error { return fmt.Errorf("%w: %s", ErrInvalid, field) }

func trimmed(p *string) string { return strings.TrimSpace(*p) }

// TourPatch carries the fields of a partial tour update; nil means unchanged.
type TourPatch struct {
	Name      *string     `json:"name"`
	Artist    *string     `json:"artist"`
	Status    *TourStatus `json:"status"`
	StartDate *string     `json:"start_date"`
	EndDate   *string     `json:"end_date"`
}

func (p TourPatch) Apply(t *Tour) error {
	if p.Name != nil {
		if trimmed(p.Name) == "" {
			return invalid("name")
		}
		t.Name = trimmed(p.Name)
	}
	if p.Artist != nil {
		t.Artist = trimmed(p.Artist)
	}
	if p.Status != nil {
		if !p.Status.Valid() {
			return invalid("status")
		}
		t.Status = *p.Status
	}
	if p.StartDate != nil {
		if !ValidDate(trimmed(p.StartDate)) {
			return invalid("start_date")
		}
		t.StartDate = trimmed(p.StartDate)
	}
	if p.EndDate != nil {
		if !ValidDate(trimmed(p.EndDate)) {
			return invalid("end_date")
		}
		t.EndDate = trimmed(p.EndDate)
	}
	if t.StartDate != "" && t.EndDate != "" && t.EndDate < t.StartDate {
		return invalid("end_date before start_date")
	}
	return nil
}

type ShowPatch struct {
	Venue    *string       `json:"venue"`
	City     *string       `json:"city"`
	State    *string       `json:"state"`
	Country  *string       `json:"country"`
	Date     *string       `json:"date"`
	Timeline *Timeline     `json:"timeline"`
	Contact  *VenueContact `json:"contact"`
	Capacity *int          `json:"capacity"`
	Status   *ShowStatus   `json:"status"`
	Notes    *string       `json:"notes"`
}

func (p ShowPatch) Apply(s *Show) error {
	if p.Venue != nil {
		if trimmed(p.Venue) == "" {
			return invalid("venue")
		}
		s.Venue = trimmed(p.Venue)
	}
	if p.City != nil {
		s.City = trimmed(p.City)
	}
	if p.State != nil {
		s.State = trimmed(p.State)
	}
	if p.Country != nil {
		s.Country = trimmed(p.Country)
	}
	if p.Date != nil {
		if !ValidDate(trimmed(p.Date)) {
			return invalid("date")
		}
		s.Date = trimmed(p.Date)
	}
	if p.Timeline != nil {
		if !p.Timeline.Valid() {
			return invalid("timeline")
		}
		s.Timeline = *p.Timeline
	}
	if p.Contact != nil {
		s.Contact = *p.Contact
	}
	if p.Capacity != nil {
		if *p.Capacity < 0 {
			return invalid("capacity")
		}
		s.Capacity = *p.Capacity
	}
	if p.Status != nil {
		if !p.Status.Valid() {
			return invalid("status")
		}
		s.Status = *p.Status
	}
	if p.Notes != nil {
		s.Notes = *p.Notes
	}
	return nil
}

type GearPatch struct {
	Name       *string        `json:"name"`
	Category   *GearCategory  `json:"category"`
	Quantity   *int           `json:"quantity"`
	Dimensions *string        `json:"dimensions"`
	WeightKg   *float64       `json:"weight_kg"`
	Condition  *GearCondition `json:"condition"`
	FlyPack    *bool          `json:"fly_pack"`
	Location   *string        `json:"location"`
	Notes      *string        `json:"notes"`
}

func (p GearPatch) Apply(g *GearItem) error {
	if p.Name != nil {
		if trimmed(p.Name) == "" {
			return invalid("name")
		}
		g.Name = trimmed(p.Name)
	}
	if p.Category != nil {
		if !p.Category.Valid() {
			return invalid("category")
		}
		g.Category = *p.Category
	}
	if p.Quantity != nil {
		if *p.Quantity < 1 {
			return invalid("quantity")
		}
		g.Quantity = *p.Quantity
	}
	if p.Dimensions != nil {
		g.Dimensions = trimmed(p.Dimensions)
	}
	if p.WeightKg != nil {
		if *p.WeightKg < 0 {
			return invalid("weight_kg")
		}
		g.WeightKg = *p.WeightKg
	}
	if p.Condition != nil {
		if !p.Condition.Valid() {
			return invalid("condition")
		}
		g.Condition = *p.Condition
	}
	if p.FlyPack != nil {
		g.FlyPack = *p.FlyPack
	}
	if p.Location != nil {
		g.Location = trimmed(p.Location)
	}
	if p.Notes != nil {
		g.Notes = *p.Notes
	}
	return nil
}

type ChannelPatch struct {
	Source  *string `json:"source"`
	Mic     *string `json:"mic"`
	DI      *string `json:"di"`
	Stand   *string `json:"stand"`
	Notes   *string `json:"notes"`
	Phantom *bool   `json:"phantom"`
	Pad     *bool   `json:"pad"`
}

func (p ChannelPatch) Apply(c *InputChannel) {
	if p.Source != nil {
		c.Source = trimmed(p.Source)
	}
	if p.Mic != nil {
		c.Mic = trimmed(p.Mic)
	}
	if p.DI != nil {
		c.DI = trimmed(p.DI)
	}
	if p.Stand != nil {
		c.Stand = trimmed(p.Stand)
	}
	if p.Notes != nil {
		c.Notes = *p.Notes
	}
	if p.Phantom != nil {
		c.Phantom = *p.Phantom
	}
	if p.Pad != nil {
		c.Pad = *p.Pad
	}
}

type TaskPatch struct {
	Title    *string       `json:"title"`
	Status   *TaskStatus   `json:"status"`
	Priority *TaskPriority `json:"priority"`
	TourID   *string       `json:"tour_id"`
	ShowID   *string       `json:"show_id"`
	DueDate  *string       `json:"due_date"`
}

func (p TaskPatch) Apply(t *Task) error {
	if p.Title != nil {
		if trimmed(p.Title) == "" {
			return invalid("title")
		}
		t.Title = trimmed(p.Title)
	}
	if p.Status != nil {
		if !p.Status.Valid() {
			return invalid("status")
		}
		t.Status = *p.Status
	}
	if p.Priority != nil {
		if !p.Priority.Valid() {
			return invalid("priority")
		}
		t.Priority = *p.Priority
	}
	if p.TourID != nil {
		t.TourID = trimmed(p.TourID)
	}
	if p.ShowID != nil {
		t.ShowID = trimmed(p.ShowID)
	}
	if p.DueDate != nil {
		if !ValidDate(trimmed(p.DueDate)) {
			return invalid("due_date")
		}
		t.DueDate = trimmed(p.DueDate)
	}
	return nil
}

type DocumentPatch struct {
	Name    *string  `json:"name"`
	Type    *DocType `json:"type"`
	Content *string  `json:"content"`
	TourID  *string  `json:"tour_id"`
}

func (p DocumentPatch) Apply(d *Document) error {
	if p.Name != nil {
		if trimmed(p.Name) == "" {
			return invalid("name")
		}
		d.Name = trimmed(p.Name)
	}
	if p.Type != nil {
		if !p.Type.Valid() {
			return invalid("type")
		}
		d.Type = *p.Type
	}
	if p.Content != nil {
		d.Content = *p.Content
	}
	if p.TourID != nil {
		d.TourID = trimmed(p.TourID)
	}
	return nil
}
