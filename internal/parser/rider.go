package parser

import (
	"regexp"
	"strings"
)

type RiderKind string

const (
	RiderAudio        RiderKind = "audio"
	RiderLighting     RiderKind = "lighting"
	RiderStage        RiderKind = "stage"
	RiderBackline     RiderKind = "backline"
	RiderHospitality  RiderKind = "hospitality"
	RiderDressingRoom RiderKind = "dressing_room"
	RiderPower        RiderKind = "power"
	RiderTransport    RiderKind = "transport"
	RiderSecurity     RiderKind = "security"
	RiderGeneral      RiderKind = "general"
)

// RiderSection is one headed block of a rider with its requirement lines.
type RiderSection struct {
	Title string    `json:"title"`
	Kind  RiderKind `json:"kind"`
	Items []string  `json:"items"`
}

var riderKinds = []struct {
	kind RiderKind
	re   *regexp.Regexp
}{
	{RiderLighting, regexp.MustCompile(`\blight`)},
	{RiderBackline, regexp.MustCompile(`\bbackline\b|\binstrument|\bdrum|\bamps?\b`)},
	{RiderAudio, regexp.MustCompile(`\bsound\b|\baudio\b|\bpa\b|\bfoh\b|\bmonitor|\bmix|\bconsole|\bmicrophone|\binput`)},
	{RiderStage, regexp.MustCompile(`\bstage\b|\briser|\bplot\b`)},
	{RiderDressingRoom, regexp.MustCompile(`\bdressing\b|\bgreen ?room\b`)},
	{RiderHospitality, regexp.MustCompile(`\bhospitality\b|\bcatering\b|\bfood\b|\bdrinks?\b|\bmeals?\b|\bbuyouts?\b`)},
	{RiderPower, regexp.MustCompile(`\bpower\b|\belectric`)},
	{RiderTransport, regexp.MustCompile(`\bparking\b|\btransport|\bbus\b|\btrucks?\b|\bload\b|\btravel\b|\bhotels?\b`)},
	{RiderSecurity, regexp.MustCompile(`\bsecurity\b|\bguest ?list\b|\bpass(?:es)?\b|\bcredentials?\b`)},
}

// ClassifyRiderSection maps a heading to a section kind by keyword.
func ClassifyRiderSection(title string) RiderKind {
	lower := strings.ToLower(title)
	for _, k := range riderKinds {
		if k.re.MatchString(lower) {
			return k.kind
		}
	}
	return RiderGeneral
}

var (
	mdHeadingRe       = regexp.MustCompile(`^#{1,6}\s+(.+?)\s*#*$`)
	numberedHeadingRe = regexp.MustCompile(`^(?:\d{1,2}[.)]|[IVX]{1,4}\.)\s+([^a-z]+)$`)
	colonHeadingRe    = regexp.MustCompile(`^([^:]{2,60}):$`)
)

// riderHeading reports whether line starts a new section and returns its title.
func riderHeading(line string) (string, bool) {
	if m := mdHeadingRe.FindStringSubmatch(line); m != nil {
		return tidy(m[1]), true
	}
	if m := numberedHeadingRe.FindStringSubmatch(line); m != nil && hasLetter(m[1]) {
		return tidy(m[1]), true
	}
	if m := colonHeadingRe.FindStringSubmatch(line); m != nil {
		return tidy(m[1]), true
	}
	if len(line) <= 60 && hasLetter(line) && strings.ToUpper(line) == line && countLetters(line) >= 3 {
		return tidy(line), true
	}
	return "", false
}

func countLetters(s string) int {
	n := 0
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			n++
		}
	}
	return n
}

// ParseRider splits a rider into sections. Lines before the first heading
// land in a "General" section; sections without items are dropped.
func ParseRider(text string) []RiderSection {
	var (
		out []RiderSection
		cur = RiderSection{Title: "General", Kind: RiderGeneral}
	)
	flush := func() {
		if len(cur.Items) > 0 {
			out = append(out, cur)
		}
	}
	for _, raw := range lines(text) {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if title, ok := riderHeading(line); ok && title != "" {
			flush()
			cur = RiderSection{Title: title, Kind: ClassifyRiderSection(title)}
			continue
		}
		item := tidy(bulletRe.ReplaceAllString(line, ""))
		if item == "" || !hasLetter(item) {
			continue
		}
		cur.Items = append(cur.Items, item)
	}
	flush()
	return out
}
