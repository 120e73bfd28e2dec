package tui

import "sort"

// dots is a braille canvas: every terminal cell holds a 2x4 grid of dots.
type dots struct {
	w, h int       // in cells
	m    [][]uint8 // per-cell dot mask
}

func newDots(w, h int) *dots {
	m := make([][]uint8, h)
	for i := range m {
		m[i] = make([]uint8, w)
	}
	return &dots{w: w, h: h, m: m}
}

// braille dot bits by [column][row] inside a cell
var dotBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

func (d *dots) set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	cx, cy := x/2, y/4
	if cx >= d.w || cy >= d.h {
		return
	}
	d.m[cy][cx] |= dotBits[x%2][y%4]
}

// line draws with Bresenham.
func (d *dots) line(x0, y0, x1, y1 int) {
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		d.set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// fill sets every dot inside rings under the even-odd rule, so holes
// stay open.
func (d *dots) fill(rings [][][2]int) {
	var xs []int
	for y := 0; y < d.h*4; y++ {
		xs = xs[:0]
		for _, r := range rings {
			for i := range r {
				a, b := r[i], r[(i+1)%len(r)]
				if a[1] == b[1] {
					continue
				}
				if (y >= a[1] && y < b[1]) || (y >= b[1] && y < a[1]) {
					t := float64(y-a[1]) / float64(b[1]-a[1])
					xs = append(xs, a[0]+int(t*float64(b[0]-a[0])))
				}
			}
		}
		sort.Ints(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			for x := max(0, xs[i]); x <= xs[i+1] && x < d.w*2; x++ {
				d.set(x, y)
			}
		}
	}
}

func (d *dots) rows() []string {
	out := make([]string, d.h)
	for y, cells := range d.m {
		row := make([]rune, d.w)
		for x, mask := range cells {
			if mask == 0 {
				row[x] = ' '
			} else {
				row[x] = rune(0x2800 + int(mask))
			}
		}
		out[y] = string(row)
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
