package store

import (
	"slices"

	"github.com/tourflow/tourflow/internal/model"
)

func cloneShow(sh model.Show) model.Show {
	if sh.Settlement != nil {
		set := *sh.Settlement
		sh.Settlement = &set
	}
	return sh
}

func cloneTour(t model.Tour) model.Tour {
	if t.Shows != nil {
		shows := make([]model.Show, len(t.Shows))
		for i, sh := range t.Shows {
			shows[i] = cloneShow(sh)
		}
		t.Shows = shows
	}
	return t
}

func cloneCrew(c model.Crew) model.Crew {
	c.Members = slices.Clone(c.Members)
	c.Documents = slices.Clone(c.Documents)
	return c
}

func cloneSnapshot(s Snapshot) Snapshot {
	out := Snapshot{
		Version:   s.Version,
		Gear:      slices.Clone(s.Gear),
		InputList: slices.Clone(s.InputList),
		Documents: slices.Clone(s.Documents),
		Tasks:     slices.Clone(s.Tasks),
		Chat:      slices.Clone(s.Chat),
	}
	if s.Tours != nil {
		out.Tours = make([]model.Tour, len(s.Tours))
		for i, t := range s.Tours {
			out.Tours[i] = cloneTour(t)
		}
	}
	if s.Crews != nil {
		out.Crews = make([]model.Crew, len(s.Crews))
		for i, c := range s.Crews {
			out.Crews[i] = cloneCrew(c)
		}
	}
	return out
}
