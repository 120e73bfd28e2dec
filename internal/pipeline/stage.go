package pipeline

// Stage is a step of the run. A run only ever moves forward through them.
type Stage int

const (
	Idle Stage = iota
	Loaded
	Reprojected
	Rendered
	Composited
	Exported
	Terminal
)

func (s Stage) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loaded:
		return "loaded"
	case Reprojected:
		return "reprojected"
	case Rendered:
		return "rendered"
	case Composited:
		return "composited"
	case Exported:
		return "exported"
	case Terminal:
		return "terminal"
	}
	return "unknown"
}

// op names the work that leads into s, used to prefix errors.
func (s Stage) op() string {
	switch s {
	case Loaded:
		return "load"
	case Reprojected:
		return "reproject"
	case Rendered:
		return "render"
	case Composited:
		return "basemap"
	case Exported:
		return "export"
	}
	return s.String()
}
