package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tourflow/tourflow/internal/model"
)

var (
	// "1. Kick In - Beta 91A", "Ch 3: Snare", "12\tVox\tSM58", "4 | Tom | e604"
	channelLineRe = regexp.MustCompile(`(?i)^\s*(?:(?:ch|chan|channel|input|inp)\.?\s*)?(\d{1,2})(?:\s*[.):\-–]\s*|\t+|\s+)(.+)$`)
	fieldSplitRe  = regexp.MustCompile(`\s+[-–—]\s+|\s*[|\t,;]\s*`)

	phantomRe = regexp.MustCompile(`(?i)\+?48\s?v\b|\bphantom(?:\s+power)?\b`)
	padRe     = regexp.MustCompile(`(?i)-\s?\d{1,2}\s?db\b(?:\s*pad\b)?|\bpad\b`)
	diRe      = regexp.MustCompile(`(?i)\bdi\b|\bd\.i\.|\bradial\b|\bj48\b|\bpreamp\b|\bdirect\b|\bbss\b|\bar133\b|\bcountryman\b`)
	standRe   = regexp.MustCompile(`(?i)\bboom\b|\bstand\b|\bclip\b|\btabletop\b|\bstraight\b|\btall\b|\bshort\b|\bround base\b`)
)

// ParseInputList extracts numbered channels. Only channels 1..32 are kept;
// when a number repeats the later line wins. The result is ordered by
// channel number.
func ParseInputList(text string) []model.InputChannel {
	byNum := map[int]model.InputChannel{}
	for _, line := range lines(text) {
		ch, ok := parseChannelLine(line)
		if !ok {
			continue
		}
		byNum[ch.Number] = ch
	}
	out := make([]model.InputChannel, 0, len(byNum))
	for n := 1; n <= model.ChannelCount; n++ {
		if ch, ok := byNum[n]; ok {
			out = append(out, ch)
		}
	}
	return out
}

func parseChannelLine(line string) (model.InputChannel, bool) {
	m := channelLineRe.FindStringSubmatch(line)
	if m == nil {
		return model.InputChannel{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || !model.ValidChannel(n) {
		return model.InputChannel{}, false
	}
	rest := m[2]
	ch := model.InputChannel{
		Number:  n,
		Phantom: phantomRe.MatchString(rest),
		Pad:     padRe.MatchString(rest),
	}

	var fields []string
	for _, f := range fieldSplitRe.Split(rest, -1) {
		f = phantomRe.ReplaceAllString(f, " ")
		f = padRe.ReplaceAllString(f, " ")
		if f = tidy(f); f != "" {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 || !hasLetter(fields[0]) {
		return model.InputChannel{}, false
	}
	ch.Source = fields[0]

	var notes []string
	for _, f := range fields[1:] {
		switch {
		case ch.DI == "" && diRe.MatchString(f):
			ch.DI = f
		case ch.Stand == "" && standRe.MatchString(f):
			ch.Stand = f
		case ch.Mic == "":
			ch.Mic = f
		default:
			notes = append(notes, f)
		}
	}
	ch.Notes = strings.Join(notes, "; ")
	return ch, true
}
