package mock

import "policyscout"

var _ policyscout.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of policyscout.Extractor.
type Extractor struct {
	ExtractTextFn func(html string) (string, error)
}

func (e *Extractor) ExtractText(html string) (string, error) {
	return e.ExtractTextFn(html)
}
