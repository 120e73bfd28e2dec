package render

import (
	"sync"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

type fontSet struct {
	regular *text.FontSource
	bold    *text.FontSource
}

// parsed once per process, faces are cut per figure size
var loadFonts = sync.OnceValues(func() (*fontSet, error) {
	regular, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		return nil, err
	}
	bold, err := text.NewFontSource(gobold.TTF)
	if err != nil {
		return nil, err
	}
	return &fontSet{regular: regular, bold: bold}, nil
})

// face returns a face of pt points at the figure DPI.
func (f *Figure) face(pt float64, bold bool) text.Face {
	src := f.fonts.regular
	if bold {
		src = f.fonts.bold
	}
	return src.Face(f.px(pt))
}
