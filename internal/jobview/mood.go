package jobview

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// HSL is a colour in hue (degrees), saturation and lightness (percent).
type HSL struct {
	H float64
	S float64
	L float64
}

// String renders the colour as a CSS hsl() value.
func (c HSL) String() string {
	return fmt.Sprintf("hsl(%s, %s%%, %s%%)", formatComponent(c.H), formatComponent(c.S), formatComponent(c.L))
}

func formatComponent(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

// Hex converts the colour to #rrggbb for terminal styling.
func (c HSL) Hex() string {
	r, g, b := c.RGB()
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// RGB converts the colour to 8-bit channels.
func (c HSL) RGB() (uint8, uint8, uint8) {
	h := math.Mod(c.H, 360)
	if h < 0 {
		h += 360
	}
	s := clamp(c.S, 0, 100) / 100
	l := clamp(c.L, 0, 100) / 100

	chroma := (1 - math.Abs(2*l-1)) * s
	x := chroma * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - chroma/2

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = chroma, x, 0
	case h < 120:
		r, g, b = x, chroma, 0
	case h < 180:
		r, g, b = 0, chroma, x
	case h < 240:
		r, g, b = 0, x, chroma
	case h < 300:
		r, g, b = x, 0, chroma
	default:
		r, g, b = chroma, 0, x
	}
	return toByte(r + m), toByte(g + m), toByte(b + m)
}

func toByte(v float64) uint8 {
	return uint8(math.Round(clamp(v, 0, 1) * 255))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// FallbackMoodColor is used for moods missing from the table.
var FallbackMoodColor = HSL{H: 0, S: 0, L: 60}

var moodPalette = map[string]HSL{
	"happy":       {H: 50, S: 90, L: 55},
	"joyful":      {H: 45, S: 95, L: 55},
	"excited":     {H: 30, S: 95, L: 55},
	"hopeful":     {H: 90, S: 60, L: 55},
	"peaceful":    {H: 160, S: 45, L: 60},
	"calm":        {H: 190, S: 45, L: 60},
	"serene":      {H: 180, S: 40, L: 65},
	"romantic":    {H: 330, S: 70, L: 65},
	"nostalgic":   {H: 35, S: 45, L: 60},
	"melancholy":  {H: 220, S: 35, L: 45},
	"sad":         {H: 220, S: 50, L: 40},
	"mysterious":  {H: 270, S: 45, L: 40},
	"suspense":    {H: 280, S: 55, L: 35},
	"suspenseful": {H: 280, S: 55, L: 35},
	"tense":       {H: 0, S: 60, L: 40},
	"fearful":     {H: 300, S: 40, L: 30},
	"dark":        {H: 250, S: 30, L: 25},
	"angry":       {H: 0, S: 80, L: 45},
	"dramatic":    {H: 350, S: 65, L: 40},
	"epic":        {H: 25, S: 80, L: 45},
	"action":      {H: 15, S: 85, L: 50},
	"adventurous": {H: 140, S: 65, L: 45},
	"neutral":     {H: 0, S: 0, L: 60},
}

// MoodColor maps a segment mood and its 1-10 intensity to a colour.
//
// Lightness moves by intensity/10*20-10 around the base and saturation grows
// by intensity/10*30, capped at 100. Unknown moods return FallbackMoodColor
// unchanged.
func MoodColor(mood string, intensity float64) HSL {
	base, ok := moodPalette[cases.Fold().String(strings.TrimSpace(mood))]
	if !ok {
		return FallbackMoodColor
	}
	intensity = clamp(intensity, 0, 10)
	return HSL{
		H: base.H,
		S: math.Min(100, base.S+intensity/10*30),
		L: base.L + (intensity/10*20 - 10),
	}
}

// KnownMoods lists the moods with a dedicated colour.
func KnownMoods() []string {
	moods := make([]string, 0, len(moodPalette))
	for mood := range moodPalette {
		moods = append(moods, mood)
	}
	slices.Sort(moods)
	return moods
}
