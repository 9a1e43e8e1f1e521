package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/tourflow/tourflow/internal/model"
)

type categoryRule struct {
	category model.GearCategory
	re       *regexp.Regexp
}

// Rules are checked in order; the first match wins, so the narrow rules
// ("mic stand", "power amp") sit before the broad ones.
var categoryRules = []categoryRule{
	{model.GearCases, regexp.MustCompile(`\b(?:road ?case|flight ?case|case|pelican|trunk|rack)s?\b`)},
	{model.GearRigging, regexp.MustCompile(`\b(?:truss|motor|chain ?hoist|hoist|shackle|spanset|rigging|clamp)s?\b`)},
	{model.GearLighting, regexp.MustCompile(`\b(?:light|lighting|par|moving ?head|hazer?|fog|fogger|dmx|strobe|fixture|led bar)s?\b`)},
	{model.GearVideo, regexp.MustCompile(`\b(?:projector|screen|camera|video|hdmi|sdi|led wall)s?\b`)},
	{model.GearStands, regexp.MustCompile(`\b(?:stand|boom|tripod)s?\b`)},
	{model.GearConsoles, regexp.MustCompile(`\b(?:console|desk|mixer|sd\d+|x32|m32|dlive|avantis|cl5|ql5|ql1|profile|quantum|rivage|digico)s?\b`)},
	{model.GearMicrophones, regexp.MustCompile(`\b(?:mic|mics|microphone|sm57|sm58|sm7b?|beta ?\d+a?|e60[49]|e9\d\d|md421|re20|km184|c414|d112|d6|akg|sennheiser|shure|neumann|audix|dpa)s?\b`)},
	{model.GearAudio, regexp.MustCompile(`\b(?:power ?amp|amplifier|lab ?gruppen|crown)s?\b`)},
	{model.GearSpeakers, regexp.MustCompile(`\b(?:speaker|wedge|sub|subwoofer|line ?array|pa|kara|k2|l-acoustics|d&b|fill)s?\b`)},
	{model.GearBackline, regexp.MustCompile(`\b(?:amp|amp head|head|cabinet|cab|drum|drums|kit|guitar|bass|keyboard|keys|piano|snare|cymbal|hi-?hat|ampeg|fender|marshall|orange|nord|pedal ?board)s?\b`)},
	{model.GearPower, regexp.MustCompile(`\b(?:power|distro|ups|extension|iec|powercon|battery|batteries)s?\b`)},
	{model.GearCables, regexp.MustCompile(`\b(?:cable|xlr|snake|multicore|loom|speakon|adapter|adaptor)s?\b`)},
	{model.GearAudio, regexp.MustCompile(`\b(?:di|radial|iem|in-ear|wireless|receiver|transmitter|interface|stagebox|processor|compressor|reverb)s?\b`)},
}

// CategorizeGear returns the first category whose keywords appear in name,
// or GearOther.
func CategorizeGear(name string) model.GearCategory {
	lower := strings.ToLower(name)
	for _, r := range categoryRules {
		if r.re.MatchString(lower) {
			return r.category
		}
	}
	return model.GearOther
}

var (
	qtyPrefixRe = regexp.MustCompile(`(?i)^(\d{1,3})\s*(?:[x×]|pcs?\.?)?\s+([A-Za-z].*)$`)
	qtySuffixRe = regexp.MustCompile(`(?i)^(.+?)\s+[x×]\s*(\d{1,3})$`)
	dimsRe      = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*[x×]\s*(\d+(?:\.\d+)?)\s*[x×]\s*(\d+(?:\.\d+)?)\s*(cm|mm|in|m|")?`)
	weightRe    = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(kgs?|lbs?)\b`)
	flyRe       = regexp.MustCompile(`(?i)\[fp\]|\bfly\s?pack\b|\bfly\b`)
	locationRe  = regexp.MustCompile(`@\s*([^,;|()]+)`)
	parenRe     = regexp.MustCompile(`\(([^)]*)\)`)
	headingRe   = regexp.MustCompile(`^(?:#+\s*)?([^:]+):\s*$|^#+\s*(.+)$`)

	conditionRes = []struct {
		cond model.GearCondition
		re   *regexp.Regexp
	}{
		{model.ConditionNeedsRepair, regexp.MustCompile(`(?i)\bneeds[ _]repair\b|\bbroken\b|\bdamaged\b`)},
		{model.ConditionExcellent, regexp.MustCompile(`(?i)\bexcellent\b|\bmint\b|\bbrand new\b`)},
		{model.ConditionFair, regexp.MustCompile(`(?i)\bfair\b|\bworn\b`)},
		{model.ConditionGood, regexp.MustCompile(`(?i)\bgood\b`)},
	}
)

const lbToKg = 0.45359237

// ParseGearList extracts one GearItem per line. A heading line ("LIGHTING:",
// "# Backline") sets the fallback category for the lines below it.
func ParseGearList(text string) []model.GearItem {
	var (
		out     []model.GearItem
		section model.GearCategory
	)
	for _, raw := range lines(text) {
		line := strings.TrimSpace(raw)
		if line == "" || !hasLetter(line) {
			continue
		}
		if m := headingRe.FindStringSubmatch(line); m != nil {
			title := m[1] + m[2]
			section = CategorizeGear(title)
			if section == model.GearOther {
				section = ""
			}
			continue
		}
		item, ok := parseGearLine(line)
		if !ok {
			continue
		}
		if item.Category == model.GearOther && section != "" {
			item.Category = section
		}
		out = append(out, item)
	}
	return out
}

func parseGearLine(line string) (model.GearItem, bool) {
	item := model.GearItem{Quantity: 1, Condition: model.ConditionGood}

	line = strings.TrimSpace(strings.TrimLeft(line, "-*•· "))
	// Measurements go first so "60 x 40 x 30" is never read as "x 30".
	if m := dimsRe.FindStringSubmatch(line); m != nil {
		item.Dimensions = strings.TrimSpace(m[1] + "x" + m[2] + "x" + m[3] + " " + strings.ToLower(m[4]))
		line = strings.Replace(line, m[0], " ", 1)
	}
	if m := weightRe.FindStringSubmatch(line); m != nil {
		w, _ := strconv.ParseFloat(m[1], 64)
		if strings.HasPrefix(strings.ToLower(m[2]), "lb") {
			w *= lbToKg
		}
		item.WeightKg = math.Round(w*100) / 100
		line = strings.Replace(line, m[0], " ", 1)
	}
	line = strings.TrimSpace(line)
	if m := qtyPrefixRe.FindStringSubmatch(line); m != nil {
		item.Quantity, _ = strconv.Atoi(m[1])
		line = m[2]
	} else {
		line = bulletRe.ReplaceAllString(line, "")
		if m := qtySuffixRe.FindStringSubmatch(line); m != nil {
			item.Quantity, _ = strconv.Atoi(m[2])
			line = m[1]
		}
	}
	if item.Quantity < 1 {
		item.Quantity = 1
	}

	if flyRe.MatchString(line) {
		item.FlyPack = true
		line = flyRe.ReplaceAllString(line, " ")
	}
	for _, c := range conditionRes {
		if c.re.MatchString(line) {
			item.Condition = c.cond
			line = c.re.ReplaceAllString(line, " ")
			break
		}
	}
	if m := locationRe.FindStringSubmatch(line); m != nil {
		item.Location = tidy(m[1])
		line = strings.Replace(line, m[0], " ", 1)
	}

	var notes []string
	for _, m := range parenRe.FindAllStringSubmatch(line, -1) {
		if n := tidy(m[1]); n != "" {
			notes = append(notes, n)
		}
	}
	line = parenRe.ReplaceAllString(line, " ")

	var name string
	for _, part := range fieldSplitRe.Split(line, -1) {
		part = tidy(part)
		if part == "" {
			continue
		}
		if name == "" {
			name = part
			continue
		}
		notes = append(notes, part)
	}
	if name == "" || !hasLetter(name) {
		return model.GearItem{}, false
	}
	item.Name = name
	item.Notes = strings.Join(notes, "; ")
	item.Category = CategorizeGear(name)
	return item, true
}
