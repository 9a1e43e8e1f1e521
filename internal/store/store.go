// Package store keeps the workspace snapshot in memory and writes it through
// a Persister after every mutation.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tourflow/tourflow/internal/model"
)

var ErrNotFound = errors.New("record not found")

const snapshotVersion = 1

// Snapshot is everything the workspace holds. It is also the persisted form.
type Snapshot struct {
	Version   int                  `json:"version"`
	Tours     []model.Tour         `json:"tours"`
	Gear      []model.GearItem     `json:"gear"`
	InputList []model.InputChannel `json:"input_list"`
	Crews     []model.Crew         `json:"crews"`
	Documents []model.Document     `json:"documents"`
	Tasks     []model.Task         `json:"tasks"`
	Chat      []model.ChatMessage  `json:"chat"`
}

func emptySnapshot() Snapshot {
	return Snapshot{Version: snapshotVersion, InputList: model.BlankChannels()}
}

type Store struct {
	mu        sync.RWMutex
	snap      Snapshot
	persister Persister
	log       *zap.Logger
	now       func() time.Time
	newID     func() string
}

type Option func(*Store)

func WithLogger(l *zap.Logger) Option { return func(s *Store) { s.log = l } }

func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

func WithIDs(newID func() string) Option { return func(s *Store) { s.newID = newID } }

// Open restores the last saved snapshot, or starts empty when nothing has
// been saved yet.
func Open(ctx context.Context, p Persister, opts ...Option) (*Store, error) {
	s := &Store{
		persister: p,
		log:       zap.NewNop(),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     model.NewID,
	}
	for _, o := range opts {
		o(s)
	}

	snap, ok, err := p.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if !ok {
		snap = emptySnapshot()
	}
	if len(snap.InputList) != model.ChannelCount {
		snap.InputList = model.MergeChannels(snap.InputList)
	}
	snap.Version = snapshotVersion
	s.snap = snap
	s.log.Debug("store opened",
		zap.Bool("restored", ok),
		zap.Int("tours", len(snap.Tours)),
		zap.Int("gear", len(snap.Gear)))
	return s, nil
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSnapshot(s.snap)
}

func (s *Store) Tour(id string) (model.Tour, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.tourIndex(id)
	if i < 0 {
		return model.Tour{}, ErrNotFound
	}
	return cloneTour(s.snap.Tours[i]), nil
}

// mutate runs fn under the write lock and persists the result. A failed
// write leaves the in-memory change in place.
func (s *Store) mutate(ctx context.Context, fn func(*Snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(&s.snap); err != nil {
		return err
	}
	if err := s.persister.Save(ctx, cloneSnapshot(s.snap)); err != nil {
		s.log.Warn("persist snapshot failed", zap.Error(err))
		return fmt.Errorf("persist: %w", err)
	}
	return nil
}

func (s *Store) tourIndex(id string) int {
	return slices.IndexFunc(s.snap.Tours, func(t model.Tour) bool { return t.ID == id })
}

// showIndex returns the tour and show positions of a show id.
func (s *Store) showIndex(id string) (int, int) {
	for ti, t := range s.snap.Tours {
		for si, sh := range t.Shows {
			if sh.ID == id {
				return ti, si
			}
		}
	}
	return -1, -1
}

// ---- tours ----

func (s *Store) AddTour(ctx context.Context, t model.Tour) (model.Tour, error) {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return model.Tour{}, fmt.Errorf("%w: name", model.ErrInvalid)
	}
	if t.Status == "" {
		t.Status = model.TourUpcoming
	}
	if !t.Status.Valid() {
		return model.Tour{}, fmt.Errorf("%w: status", model.ErrInvalid)
	}
	if !model.ValidDate(t.StartDate) || !model.ValidDate(t.EndDate) {
		return model.Tour{}, fmt.Errorf("%w: dates", model.ErrInvalid)
	}
	if t.StartDate != "" && t.EndDate != "" && t.EndDate < t.StartDate {
		return model.Tour{}, fmt.Errorf("%w: end_date before start_date", model.ErrInvalid)
	}
	now := s.now()
	t.ID = s.newID()
	t.CreatedAt, t.UpdatedAt = now, now
	if t.Shows == nil {
		t.Shows = []model.Show{}
	}
	err := s.mutate(ctx, func(snap *Snapshot) error {
		snap.Tours = append(snap.Tours, cloneTour(t))
		return nil
	})
	return t, err
}

func (s *Store) UpdateTour(ctx context.Context, id string, p model.TourPatch) (model.Tour, error) {
	var out model.Tour
	err := s.mutate(ctx, func(snap *Snapshot) error {
		i := s.tourIndex(id)
		if i < 0 {
			return ErrNotFound
		}
		t := snap.Tours[i]
		if err := p.Apply(&t); err != nil {
			return err
		}
		t.UpdatedAt = s.now()
		snap.Tours[i] = t
		out = cloneTour(t)
		return nil
	})
	return out, err
}

func (s *Store) DeleteTour(ctx context.Context, id string) error {
	return s.mutate(ctx, func(snap *Snapshot) error {
		i := s.tourIndex(id)
		if i < 0 {
			return ErrNotFound
		}
		snap.Tours = slices.Delete(snap.Tours, i, i+1)
		return nil
	})
}

// ---- shows ----

func (s *Store) AddShow(ctx context.Context, tourID string, sh model.Show) (model.Show, error) {
	sh.Venue = strings.TrimSpace(sh.Venue)
	if sh.Venue == "" {
		return model.Show{}, fmt.Errorf("%w: venue", model.ErrInvalid)
	}
	if !model.ValidDate(sh.Date) {
		return model.Show{}, fmt.Errorf("%w: date", model.ErrInvalid)
	}
	if !sh.Timeline.Valid() {
		return model.Show{}, fmt.Errorf("%w: timeline", model.ErrInvalid)
	}
	if sh.Status == "" {
		sh.Status = model.ShowScheduled
	}
	if !sh.Status.Valid() {
		return model.Show{}, fmt.Errorf("%w: status", model.ErrInvalid)
	}
	err := s.mutate(ctx, func(snap *Snapshot) error {
		i := s.tourIndex(tourID)
		if i < 0 {
			return ErrNotFound
		}
		now := s.now()
		sh.ID = s.newID()
		sh.TourID = tourID
		sh.CreatedAt, sh.UpdatedAt = now, now
		if sh.Settlement != nil {
			set := *sh.Settlement
			set.ShowID = sh.ID
			sh.Settlement = &set
		}
		snap.Tours[i].Shows = append(snap.Tours[i].Shows, sh)
		snap.Tours[i].UpdatedAt = now
		return nil
	})
	return sh, err
}

func (s *Store) UpdateShow(ctx context.Context, showID string, p model.ShowPatch) (model.Show, error) {
	var out model.Show
	err := s.mutate(ctx, func(snap *Snapshot) error {
		ti, si := s.showIndex(showID)
		if ti < 0 {
			return ErrNotFound
		}
		sh := snap.Tours[ti].Shows[si]
		if err := p.Apply(&sh); err != nil {
			return err
		}
		sh.UpdatedAt = s.now()
		snap.Tours[ti].Shows[si] = sh
		out = cloneShow(sh)
		return nil
	})
	return out, err
}

func (s *Store) DeleteShow(ctx context.Context, showID string) error {
	return s.mutate(ctx, func(snap *Snapshot) error {
		ti, si := s.showIndex(showID)
		if ti < 0 {
			return ErrNotFound
		}
		snap.Tours[ti].Shows = slices.Delete(snap.Tours[ti].Shows, si, si+1)
		snap.Tours[ti].UpdatedAt = s.now()
		return nil
	})
}

func (s *Store) SetSettlement(ctx context.Context, showID string, set model.Settlement) (model.Show, error) {
	if !set.Valid() {
		return model.Show{}, fmt.Errorf("%w: settlement", model.ErrInvalid)
	}
	var out model.Show
	err := s.mutate(ctx, func(snap *Snapshot) error {
		ti, si := s.showIndex(showID)
		if ti < 0 {
			return ErrNotFound
		}
		now := s.now()
		set.ShowID = showID
		set.UpdatedAt = now
		sh := &snap.Tours[ti].Shows[si]
		sh.Settlement = &set
		sh.UpdatedAt = now
		out = cloneShow(*sh)
		return nil
	})
	return out, err
}

// ---- gear ----

func (s *Store) gearIndex(id string) int {
	return slices.IndexFunc(s.snap.Gear, func(g model.GearItem) bool { return g.ID == id })
}

func (s *Store) AddGear(ctx context.Context, g model.GearItem) (model.GearItem, error) {
	g.Name = strings.TrimSpace(g.Name)
	if g.Name == "" {
		return model.GearItem{}, fmt.Errorf("%w: name", model.ErrInvalid)
	}
	g.Normalize()
	now := s.now()
	g.ID = s.newID()
	g.CreatedAt, g.UpdatedAt = now, now
	err := s.mutate(ctx, func(snap *Snapshot) error {
		snap.Gear = append(snap.Gear, g)
		return nil
	})
	return g, err
}

// updateGear applies fn to one gear item and returns the updated copy.
func (s *Store) updateGear(ctx context.Context, id string, fn func(*model.GearItem) error) (model.GearItem, error) {
	var out model.GearItem
	err := s.mutate(ctx, func(snap *Snapshot) error {
		i := s.gearIndex(id)
		if i < 0 {
			return ErrNotFound
		}
		g := snap.Gear[i]
		if err := fn(&g); err != nil {
			return err
		}
		g.UpdatedAt = s.now()
		snap.Gear[i] = g
		out = g
		return nil
	})
	return out, err
}

func (s *Store) UpdateGear(ctx context.Context, id string, p model.GearPatch) (model.GearItem, error) {
	return s.updateGear(ctx, id, p.Apply)
}

func (s *Store) CycleGearCondition(ctx context.Context, id string) (model.GearItem, error) {
	return s.updateGear(ctx, id, func(g *model.GearItem) error {
		g.Condition = g.Condition.Next()
		return nil
	})
}

func (s *Store) ToggleFlyPack(ctx context.Context, id string) (model.GearItem, error) {
	return s.updateGear(ctx, id, func(g *model.GearItem) error {
		g.FlyPack = !g.FlyPack
		return nil
	})
}

func (s *Store) DeleteGear(ctx context.Context, id string) error {
	return s.mutate(ctx, func(snap *Snapshot) error {
		i := s.gearIndex(id)
		if i < 0 {
			return ErrNotFound
		}
		snap.Gear = slices.Delete(snap.Gear, i, i+1)
		return nil
	})
}

// ---- input list ----

func (s *Store) SetChannel(ctx context.Context, n int, p model.ChannelPatch) (model.InputChannel, error) {
	if !model.ValidChannel(n) {
		return model.InputChannel{}, model.ErrChannelRange
	}
	var out model.InputChannel
	err := s.mutate(ctx, func(snap *Snapshot) error {
		ch := snap.InputList[n-1]
		p.Apply(&ch)
		ch.Number = n
		snap.InputList[n-1] = ch
		out = ch
		return nil
	})
	return out, err
}

// ReplaceInputList overwrites the list with parsed channels; channels not
// present in chs are cleared.
func (s *Store) ReplaceInputList(ctx context.Context, chs []model.InputChannel) ([]model.InputChannel, error) {
	merged := model.MergeChannels(chs)
	err := s.mutate(ctx, func(snap *Snapshot) error {
		snap.InputList = slices.Clone(merged)
		return nil
	})
	return merged, err
}

func (s *Store) ResetInputList(ctx context.Context) error {
	return s.mutate(ctx, func(snap *Snapshot) error {
		snap.InputList = model.BlankChannels()
		return nil
	})
}

// ---- crews ----

func (s *Store) crewIndex(id string) int {
	return slices.IndexFunc(s.snap.Crews, func(c model.Crew) bool { return c.ID == id })
}

func (s *Store) AddCrew(ctx context.Context, name string) (model.Crew, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Crew{}, fmt.Errorf("%w: name", model.ErrInvalid)
	}
	c := model.Crew{
		ID:        s.newID(),
		Name:      name,
		Members:   []model.CrewMemberLink{},
		Documents: []model.CrewDocument{},
		CreatedAt: s.now(),
	}
	err := s.mutate(ctx, func(snap *Snapshot) error {
		snap.Crews = append(snap.Crews, cloneCrew(c))
		return nil
	})
	return c, err
}

func (s *Store) DeleteCrew(ctx context.Context, id string) error {
	return s.mutate(ctx, func(snap *Snapshot) error {
		i := s.crewIndex(id)
		if i < 0 {
			return ErrNotFound
		}
		snap.Crews = slices.Delete(snap.Crews, i, i+1)
		return nil
	})
}

func (s *Store) AddCrewMember(ctx context.Context, crewID string, m model.CrewMemberLink) (model.CrewMemberLink, error) {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.ToLower(strings.TrimSpace(m.Email))
	if m.Name == "" && m.Email == "" {
		return model.CrewMemberLink{}, fmt.Errorf("%w: name or email", model.ErrInvalid)
	}
	if m.Role == "" {
		m.Role = model.CrewMember
	}
	if !m.Role.Valid() {
		return model.CrewMemberLink{}, fmt.Errorf("%w: role", model.ErrInvalid)
	}
	err := s.mutate(ctx, func(snap *Snapshot) error {
		i := s.crewIndex(crewID)
		if i < 0 {
			return ErrNotFound
		}
		m.ID = s.newID()
		m.CrewID = crewID
		snap.Crews[i].Members = append(snap.Crews[i].Members, m)
		return nil
	})
	return m, err
}

func (s *Store) RemoveCrewMember(ctx context.Context, crewID, memberID string) error {
	return s.mutate(ctx, func(snap *Snapshot) error {
		i := s.crewIndex(crewID)
		if i < 0 {
			return ErrNotFound
		}
		members := snap.Crews[i].Members
		j := slices.IndexFunc(members, func(m model.CrewMemberLink) bool { return m.ID == memberID })
		if j < 0 {
			return ErrNotFound
		}
		snap.Crews[i].Members = slices.Delete(members, j, j+1)
		return nil
	})
}

// ShareDocument links a workspace document to a crew. Sharing twice is a no-op.
func (s *Store) ShareDocument(ctx context.Context, crewID, documentID string) (model.CrewDocument, error) {
	var out model.CrewDocument
	err := s.mutate(ctx, func(snap *Snapshot) error {
		ci := s.crewIndex(crewID)
		di := s.documentIndex(documentID)
		if ci < 0 || di < 0 {
			return ErrNotFound
		}
		crew := &snap.Crews[ci]
		for _, d := range crew.Documents {
			if d.DocumentID == documentID {
				out = d
				return nil
			}
		}
		doc := snap.Documents[di]
		out = model.CrewDocument{
			CrewID:     crewID,
			DocumentID: documentID,
			Name:       doc.Name,
			Type:       doc.Type,
			SharedAt:   s.now(),
		}
		crew.Documents = append(crew.Documents, out)
		return nil
	})
	return out, err
}

// ---- documents ----

func (s *Store) documentIndex(id string) int {
	return slices.IndexFunc(s.snap.Documents, func(d model.Document) bool { return d.ID == id })
}

func (s *Store) AddDocument(ctx context.Context, d model.Document) (model.Document, error) {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return model.Document{}, fmt.Errorf("%w: name", model.ErrInvalid)
	}
	if !d.Type.Valid() {
		return model.Document{}, fmt.Errorf("%w: type", model.ErrInvalid)
	}
	now := s.now()
	d.ID = s.newID()
	d.CreatedAt, d.UpdatedAt = now, now
	err := s.mutate(ctx, func(snap *Snapshot) error {
		snap.Documents = append(snap.Documents, d)
		return nil
	})
	return d, err
}

func (s *Store) UpdateDocument(ctx context.Context, id string, p model.DocumentPatch) (model.Document, error) {
	var out model.Document
	err := s.mutate(ctx, func(snap *Snapshot) error {
		i := s.documentIndex(id)
		if i < 0 {
			return ErrNotFound
		}
		d := snap.Documents[i]
		if err := p.Apply(&d); err != nil {
			return err
		}
		d.UpdatedAt = s.now()
		snap.Documents[i] = d
		out = d
		return nil
	})
	return out, err
}

// DeleteDocument also drops the document from every crew it was shared with.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	return s.mutate(ctx, func(snap *Snapshot) error {
		i := s.documentIndex(id)
		if i < 0 {
			return ErrNotFound
		}
		snap.Documents = slices.Delete(snap.Documents, i, i+1)
		for ci := range snap.Crews {
			snap.Crews[ci].Documents = slices.DeleteFunc(snap.Crews[ci].Documents,
				func(d model.CrewDocument) bool { return d.DocumentID == id })
		}
		return nil
	})
}

// ---- tasks ----

func (s *Store) taskIndex(id string) int {
	return slices.IndexFunc(s.snap.Tasks, func(t model.Task) bool { return t.ID == id })
}

func (s *Store) AddTask(ctx context.Context, t model.Task) (model.Task, error) {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return model.Task{}, fmt.Errorf("%w: title", model.ErrInvalid)
	}
	if t.Status == "" {
		t.Status = model.TaskTodo
	}
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}
	if !t.Status.Valid() || !t.Priority.Valid() || !model.ValidDate(t.DueDate) {
		return model.Task{}, fmt.Errorf("%w: task", model.ErrInvalid)
	}
	now := s.now()
	t.ID = s.newID()
	t.CreatedAt, t.UpdatedAt = now, now
	err := s.mutate(ctx, func(snap *Snapshot) error {
		snap.Tasks = append(snap.Tasks, t)
		return nil
	})
	return t, err
}

func (s *Store) UpdateTask(ctx context.Context, id string, p model.TaskPatch) (model.Task, error) {
	var out model.Task
	err := s.mutate(ctx, func(snap *Snapshot) error {
		i := s.taskIndex(id)
		if i < 0 {
			return ErrNotFound
		}
		t := snap.Tasks[i]
		if err := p.Apply(&t); err != nil {
			return err
		}
		t.UpdatedAt = s.now()
		snap.Tasks[i] = t
		out = t
		return nil
	})
	return out, err
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	return s.mutate(ctx, func(snap *Snapshot) error {
		i := s.taskIndex(id)
		if i < 0 {
			return ErrNotFound
		}
		snap.Tasks = slices.Delete(snap.Tasks, i, i+1)
		return nil
	})
}

// ---- chat ----

func (s *Store) AddChatMessage(ctx context.Context, role model.ChatRole, content string) (model.ChatMessage, error) {
	m := model.ChatMessage{ID: s.newID(), Role: role, Content: content, Timestamp: s.now()}
	err := s.mutate(ctx, func(snap *Snapshot) error {
		snap.Chat = append(snap.Chat, m)
		return nil
	})
	return m, err
}

func (s *Store) ClearChat(ctx context.Context) error {
	return s.mutate(ctx, func(snap *Snapshot) error {
		snap.Chat = nil
		return nil
	})
}
