package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tourflow/tourflow/internal/model"
)

// Remote receives upserted rows keyed by primary key. Later writes replace
// earlier ones.
type Remote interface {
	Upsert(ctx context.Context, table string, rows any) error
}

// SyncReport counts the rows pushed per table.
type SyncReport map[string]int

type tourRow struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Artist    string           `json:"artist"`
	Status    model.TourStatus `json:"status"`
	StartDate *string          `json:"start_date"`
	EndDate   *string          `json:"end_date"`
	UpdatedAt time.Time        `json:"updated_at"`
}

type showRow struct {
	ID           string           `json:"id"`
	TourID       string           `json:"tour_id"`
	Venue        string           `json:"venue"`
	City         string           `json:"city"`
	State        string           `json:"state"`
	Country      string           `json:"country"`
	Date         *string          `json:"date"`
	LoadIn       string           `json:"load_in"`
	Soundcheck   string           `json:"soundcheck"`
	Doors        string           `json:"doors"`
	ShowTime     string           `json:"show_time"`
	Curfew       string           `json:"curfew"`
	ContactName  string           `json:"contact_name"`
	ContactEmail string           `json:"contact_email"`
	ContactPhone string           `json:"contact_phone"`
	Capacity     int              `json:"capacity"`
	Status       model.ShowStatus `json:"status"`
	Notes        string           `json:"notes"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

type crewRow struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// nullable turns an empty date into a JSON null.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Sync pushes the whole snapshot to r. Parents go first so foreign keys hold;
// independent tables are pushed concurrently. Chat is never synced.
func (s *Store) Sync(ctx context.Context, r Remote) (SyncReport, error) {
	snap := s.Snapshot()

	var (
		tours       []tourRow
		shows       []showRow
		settlements []model.Settlement
		crews       []crewRow
		members     []model.CrewMemberLink
		shared      []model.CrewDocument
	)
	for _, t := range snap.Tours {
		tours = append(tours, tourRow{
			ID: t.ID, Name: t.Name, Artist: t.Artist, Status: t.Status,
			StartDate: nullable(t.StartDate), EndDate: nullable(t.EndDate), UpdatedAt: t.UpdatedAt,
		})
		for _, sh := range t.Shows {
			shows = append(shows, showRow{
				ID: sh.ID, TourID: t.ID, Venue: sh.Venue, City: sh.City, State: sh.State,
				Country: sh.Country, Date: nullable(sh.Date),
				LoadIn: sh.Timeline.LoadIn, Soundcheck: sh.Timeline.Soundcheck, Doors: sh.Timeline.Doors,
				ShowTime: sh.Timeline.ShowTime, Curfew: sh.Timeline.Curfew,
				ContactName: sh.Contact.Name, ContactEmail: sh.Contact.Email, ContactPhone: sh.Contact.Phone,
				Capacity: sh.Capacity, Status: sh.Status, Notes: sh.Notes, UpdatedAt: sh.UpdatedAt,
			})
			if sh.Settlement != nil {
				settlements = append(settlements, *sh.Settlement)
			}
		}
	}
	for _, c := range snap.Crews {
		crews = append(crews, crewRow{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt})
		members = append(members, c.Members...)
		shared = append(shared, c.Documents...)
	}

	var (
		mu     sync.Mutex
		report = SyncReport{}
	)
	push := func(ctx context.Context, table string, n int, rows any) error {
		if n == 0 {
			return nil
		}
		if err := r.Upsert(ctx, table, rows); err != nil {
			return fmt.Errorf("sync %s: %w", table, err)
		}
		mu.Lock()
		report[table] = n
		mu.Unlock()
		s.log.Debug("synced table", zap.String("table", table), zap.Int("rows", n))
		return nil
	}

	// parents
	if err := push(ctx, "tours", len(tours), tours); err != nil {
		return report, err
	}
	if err := push(ctx, "crews", len(crews), crews); err != nil {
		return report, err
	}
	if err := push(ctx, "documents", len(snap.Documents), snap.Documents); err != nil {
		return report, err
	}
	if err := push(ctx, "shows", len(shows), shows); err != nil {
		return report, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	g.Go(func() error { return push(gctx, "settlements", len(settlements), settlements) })
	g.Go(func() error { return push(gctx, "gear", len(snap.Gear), snap.Gear) })
	g.Go(func() error { return push(gctx, "input_channels", len(snap.InputList), snap.InputList) })
	g.Go(func() error { return push(gctx, "tasks", len(snap.Tasks), snap.Tasks) })
	g.Go(func() error { return push(gctx, "crew_members", len(members), members) })
	g.Go(func() error { return push(gctx, "crew_documents", len(shared), shared) })
	err := g.Wait()
	s.log.Info("workspace synced", zap.Any("rows", report), zap.Error(err))
	return report, err
}
