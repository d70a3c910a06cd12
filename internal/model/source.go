package model

// Source is a single stellar source, either synthetically injected ground
// truth or one detection reported by a pipeline under test. Positions are
// image-pixel coordinates.
type Source struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Flux float64 `json:"flux"`

	// Optional per-source metadata from the fitting pipeline.
	Flag string  `json:"flag,omitempty"`
	Size float64 `json:"size,omitempty"`
}

// SourceTable is an ordered sequence of sources. Insertion order carries no
// meaning, but it is stable: the same generation or detection run always
// yields the same order.
type SourceTable []Source

// Image is an opaque handle to a rendered scene. The engine never inspects
// pixel data; it only forwards it to the detection pipeline.
type Image struct {
	ID   string `json:"id"`
	Data []byte `json:"data,omitempty"`
}
