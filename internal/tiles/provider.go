package tiles

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb/maptile"
)

var ErrUnknownProvider = errors.New("unknown tile provider")

// Provider describes an XYZ tile server.
type Provider struct {
	Name        string
	URL         string // template with {s} {z} {x} {y}
	Subdomains  []string
	MaxZoom     int
	Attribution string
}

// DefaultProvider matches the humanitarian OSM style used for study area maps.
const DefaultProvider = "OpenStreetMap.HOT"

var providers = []Provider{
	{
		Name:        "OpenStreetMap.HOT",
		URL:         "https://{s}.tile.openstreetmap.fr/hot/{z}/{x}/{y}.png",
		Subdomains:  []string{"a", "b", "c"},
		MaxZoom:     19,
		Attribution: "(C) OpenStreetMap contributors, Tiles style by Humanitarian OpenStreetMap Team hosted by OpenStreetMap France",
	},
	{
		Name:        "OpenStreetMap.Mapnik",
		URL:         "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
		MaxZoom:     19,
		Attribution: "(C) OpenStreetMap contributors",
	},
	{
		Name:        "CartoDB.Positron",
		URL:         "https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}.png",
		Subdomains:  []string{"a", "b", "c", "d"},
		MaxZoom:     20,
		Attribution: "(C) OpenStreetMap contributors (C) CARTO",
	},
	{
		Name:        "CartoDB.DarkMatter",
		URL:         "https://{s}.basemaps.cartocdn.com/dark_all/{z}/{x}/{y}.png",
		Subdomains:  []string{"a", "b", "c", "d"},
		MaxZoom:     20,
		Attribution: "(C) OpenStreetMap contributors (C) CARTO",
	},
	{
		Name:        "OpenTopoMap",
		URL:         "https://{s}.tile.opentopomap.org/{z}/{x}/{y}.png",
		Subdomains:  []string{"a", "b", "c"},
		MaxZoom:     17,
		Attribution: "Map data: (C) OpenStreetMap contributors, SRTM | Map style: (C) OpenTopoMap (CC-BY-SA)",
	},
	{
		Name:        "Esri.WorldImagery",
		URL:         "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
		MaxZoom:     18,
		Attribution: "Tiles (C) Esri",
	},
}

// Providers returns the built-in providers sorted by name.
func Providers() []Provider {
	out := append([]Provider(nil), providers...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup finds a provider by case-insensitive name.
func Lookup(name string) (Provider, error) {
	for _, p := range providers {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p, nil
		}
	}
	names := make([]string, 0, len(providers))
	for _, p := range Providers() {
		names = append(names, p.Name)
	}
	return Provider{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownProvider, name, strings.Join(names, ", "))
}

// Custom builds a provider from a user supplied URL template.
func Custom(url string, maxZoom int) (Provider, error) {
	for _, k := range []string{"{z}", "{x}", "{y}"} {
		if !strings.Contains(url, k) {
			return Provider{}, fmt.Errorf("tile url %q lacks %s", url, k)
		}
	}
	if maxZoom <= 0 {
		maxZoom = 19
	}
	return Provider{Name: "custom", URL: url, MaxZoom: maxZoom}, nil
}

// TileURL expands the template for one tile.
func (p Provider) TileURL(t maptile.Tile) string {
	sub := ""
	if len(p.Subdomains) > 0 {
		sub = p.Subdomains[int(t.X+t.Y)%len(p.Subdomains)]
	}
	r := strings.NewReplacer(
		"{s}", sub,
		"{z}", strconv.Itoa(int(t.Z)),
		"{x}", strconv.FormatUint(uint64(t.X), 10),
		"{y}", strconv.FormatUint(uint64(t.Y), 10),
		"{r}", "",
	)
	return r.Replace(p.URL)
}
