// Package daysheet renders the per-show schedule document that is handed to
// the crew on the day of a show.
package daysheet

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/tourflow/tourflow/internal/model"
)

var sheet = template.Must(template.New("day_sheet").Funcs(template.FuncMap{
	"orTBD": func(s string) string {
		if s == "" {
			return "TBD"
		}
		return s
	},
	"money": money,
}).Parse(`DAY SHEET
{{.Artist}} / {{.TourName}}
{{.Date}}

VENUE
  {{.Show.Venue}}
  {{.Location}}
{{- if .Show.Capacity}}
  Capacity: {{.Show.Capacity}}
{{- end}}

SCHEDULE
  Load In     {{orTBD .Show.Timeline.LoadIn}}
  Soundcheck  {{orTBD .Show.Timeline.Soundcheck}}
  Doors       {{orTBD .Show.Timeline.Doors}}
  Show        {{orTBD .Show.Timeline.ShowTime}}
  Curfew      {{orTBD .Show.Timeline.Curfew}}
{{- with .Show.Contact}}{{if or .Name .Email .Phone}}

CONTACT
{{- if .Name}}
  {{.Name}}
{{- end}}
{{- if .Email}}
  {{.Email}}
{{- end}}
{{- if .Phone}}
  {{.Phone}}
{{- end}}
{{- end}}{{end}}
{{- with .Show.Settlement}}

SETTLEMENT
  Guarantee   {{money .GuaranteeCents}}
  Gross       {{money .GrossCents}}
  Expenses    {{money .ExpensesCents}}
  Net         {{money .NetCents}}
  Payout      {{money .PayoutCents}}
{{- end}}
{{- if .Show.Notes}}

NOTES
{{.Show.Notes}}
{{- end}}
`))

type view struct {
	Artist   string
	TourName string
	Date     string
	Location string
	Show     model.Show
}

// Render returns the day sheet text for a show of tour.
func Render(tour model.Tour, show model.Show) string {
	v := view{
		Artist:   tour.Artist,
		TourName: tour.Name,
		Date:     longDate(show.Date),
		Location: location(show),
		Show:     show,
	}
	var b strings.Builder
	// the template only reads plain fields, so Execute cannot fail
	_ = sheet.Execute(&b, v)
	return b.String()
}

// Title is the document name used when a day sheet is saved.
func Title(tour model.Tour, show model.Show) string {
	return fmt.Sprintf("Day Sheet - %s - %s", show.Venue, show.Date)
}

func longDate(d string) string {
	t, err := time.Parse(model.DateLayout, d)
	if err != nil {
		return orTBD(d)
	}
	return t.Format("Monday, January 2, 2006")
}

func location(s model.Show) string {
	var parts []string
	for _, p := range []string{s.City, s.State, s.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func money(cents int64) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

func orTBD(s string) string {
	if s == "" {
		return "TBD"
	}
	return s
}
