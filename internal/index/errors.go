package index

import "errors"

// ErrFieldNotIndexed is returned by SegmentReader.InvertedIndex for fields
// that have no terms in the segment.
var ErrFieldNotIndexed = errors.New("field not indexed in segment")
