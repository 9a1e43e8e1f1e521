package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tourflow/tourflow/internal/model"
	"github.com/tourflow/tourflow/internal/store"
)

// matchID accepts a full id or any unambiguous prefix of one.
func matchID(kind, ref string, ids []string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%s id is required", kind)
	}
	var found []string
	for _, id := range ids {
		if id == ref {
			return id, nil
		}
		if strings.HasPrefix(id, ref) {
			found = append(found, id)
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("%s %q: %w", kind, ref, store.ErrNotFound)
	case 1:
		return found[0], nil
	}
	return "", fmt.Errorf("%s %q is ambiguous (%d matches)", kind, ref, len(found))
}

func (a *App) tourID(ref string) (string, error) {
	var ids []string
	for _, t := range a.store.Snapshot().Tours {
		ids = append(ids, t.ID)
	}
	return matchID("tour", ref, ids)
}

// findShow returns the show with its tour.
func (a *App) findShow(ref string) (model.Tour, model.Show, error) {
	tours := a.store.Snapshot().Tours
	var ids []string
	for _, t := range tours {
		for _, s := range t.Shows {
			ids = append(ids, s.ID)
		}
	}
	id, err := matchID("show", ref, ids)
	if err != nil {
		return model.Tour{}, model.Show{}, err
	}
	for _, t := range tours {
		for _, s := range t.Shows {
			if s.ID == id {
				return t, s, nil
			}
		}
	}
	return model.Tour{}, model.Show{}, store.ErrNotFound
}

func (a *App) gearID(ref string) (string, error) {
	var ids []string
	for _, g := range a.store.Snapshot().Gear {
		ids = append(ids, g.ID)
	}
	return matchID("gear", ref, ids)
}

func (a *App) crew(ref string) (model.Crew, error) {
	crews := a.store.Snapshot().Crews
	var ids []string
	for _, c := range crews {
		ids = append(ids, c.ID)
	}
	id, err := matchID("crew", ref, ids)
	if err != nil {
		return model.Crew{}, err
	}
	for _, c := range crews {
		if c.ID == id {
			return c, nil
		}
	}
	return model.Crew{}, store.ErrNotFound
}

func (a *App) documentID(ref string) (string, error) {
	var ids []string
	for _, d := range a.store.Snapshot().Documents {
		ids = append(ids, d.ID)
	}
	return matchID("document", ref, ids)
}

func (a *App) taskID(ref string) (string, error) {
	var ids []string
	for _, t := range a.store.Snapshot().Tasks {
		ids = append(ids, t.ID)
	}
	return matchID("task", ref, ids)
}

// shortID is what tables print; matchID accepts it back.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// parseCents reads a dollar amount such as "1500" or "1,250.50".
func parseCents(s string) (int64, error) {
	s = strings.TrimPrefix(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), "$")
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return int64(math.Round(f * 100)), nil
}

func dollars(cents int64) string {
	return fmt.Sprintf("$%.2f", float64(cents)/100)
}
