package store

// Config locates the device storage.
type Config interface {
	BasePath() string
}

// Dir is a Config for a fixed directory.
type Dir string

func (d Dir) BasePath() string {
	return string(d)
}
