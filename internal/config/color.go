package config

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// a handful of CSS names people actually type into map styles
var namedColors = map[string]color.NRGBA{
	"black":       {0, 0, 0, 255},
	"white":       {255, 255, 255, 255},
	"red":         {255, 0, 0, 255},
	"green":       {0, 128, 0, 255},
	"blue":        {0, 0, 255, 255},
	"yellow":      {255, 255, 0, 255},
	"orange":      {255, 165, 0, 255},
	"purple":      {128, 0, 128, 255},
	"gray":        {128, 128, 128, 255},
	"grey":        {128, 128, 128, 255},
	"brown":       {165, 42, 42, 255},
	"saddlebrown": {139, 69, 19, 255},
	"sienna":      {160, 82, 45, 255},
	"tan":         {210, 180, 140, 255},
	"darkgreen":   {0, 100, 0, 255},
	"forestgreen": {34, 139, 34, 255},
	"navy":        {0, 0, 128, 255},
	"steelblue":   {70, 130, 180, 255},
	"crimson":     {220, 20, 60, 255},
	"gold":        {255, 215, 0, 255},
	"teal":        {0, 128, 128, 255},
	"magenta":     {255, 0, 255, 255},
	"cyan":        {0, 255, 255, 255},
}

// ParseColor accepts a CSS name or #rgb, #rrggbb, #rrggbbaa.
func ParseColor(s string) (color.NRGBA, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[v]; ok {
		return c, nil
	}
	if !strings.HasPrefix(v, "#") {
		return color.NRGBA{}, fmt.Errorf("unknown color %q", s)
	}
	hex := v[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("bad hex color %q", s)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("bad hex color %q", s)
	}
	return color.NRGBA{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}, nil
}

// Fill returns the parsed fill color; Validate has already checked it.
func (s Style) Fill() color.NRGBA {
	c, _ := ParseColor(s.FillColor)
	return c
}

// Edge returns the parsed outline color.
func (s Style) Edge() color.NRGBA {
	c, _ := ParseColor(s.EdgeColor)
	return c
}
