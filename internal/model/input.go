package model

import (
	"errors"
	"time"
)

// ChannelCount is the fixed size of every input list.
const ChannelCount = 32

var ErrChannelRange = errors.New("channel must be between 1 and 32")

// InputChannel maps one numbered console input to a source and microphone.
type InputChannel struct {
	Number  int    `json:"number"`
	Source  string `json:"source"`
	Mic     string `json:"mic"`
	DI      string `json:"di"`
	Stand   string `json:"stand"`
	Notes   string `json:"notes"`
	Phantom bool   `json:"phantom"`
	Pad     bool   `json:"pad"`
}

// Empty reports whether nothing is patched on the channel.
func (c InputChannel) Empty() bool {
	return c.Source == "" && c.Mic == "" && c.DI == "" && c.Stand == "" && c.Notes == "" && !c.Phantom && !c.Pad
}

func ValidChannel(n int) bool { return n >= 1 && n <= ChannelCount }

type InputList struct {
	ID        string         `json:"id"`
	OwnerID   uint64         `json:"owner_id,omitempty"`
	TourID    string         `json:"tour_id,omitempty"`
	Name      string         `json:"name"`
	Channels  []InputChannel `json:"channels"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// BlankChannels returns the 32 unpatched channels of a fresh list.
func BlankChannels() []InputChannel {
	chs := make([]InputChannel, ChannelCount)
	for i := range chs {
		chs[i].Number = i + 1
	}
	return chs
}

// MergeChannels lays parsed channels over a blank list so the result always
// holds exactly 32 channels. Out-of-range numbers are ignored; later
// duplicates win.
func MergeChannels(parsed []InputChannel) []InputChannel {
	chs := BlankChannels()
	for _, c := range parsed {
		if !ValidChannel(c.Number) {
			continue
		}
		chs[c.Number-1] = c
	}
	return chs
}
