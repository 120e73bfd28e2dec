package geom

import "errors"

var (
	ErrFileNotFound   = errors.New("file not found")
	ErrInvalidFormat  = errors.New("invalid shapefile")
	ErrUnsupportedCRS = errors.New("unsupported crs")
)
