package types

// ComputeLineColumn computes line and column numbers from a byte offset in content.
// Lines and columns are 1-indexed (first line is 1, first column is 1). Columns
// reset on either '\n' or '\r', matching the line-ending conventions a blob's
// provenance (checked out on any platform) may carry.
//
// This is the single-shot form; callers translating many offsets into the same
// blob (the common case — one blob, many matches) should use LocationMapper
// instead, which amortizes the scan across calls.
func ComputeLineColumn(content []byte, byteOffset int) (line, column int) {
	line = 1
	column = 1
	for i := 0; i < byteOffset && i < len(content); i++ {
		switch content[i] {
		case '\n':
			line++
			column = 1
		case '\r':
			column = 1
		default:
			column++
		}
	}
	return line, column
}

// LocationMapper translates byte offsets into 1-based (line, column) positions
// over a single byte buffer (§4.2). The table is built lazily: each lookup
// extends it only as far as the offset requested, so a blob with matches
// clustered early never pays to scan its tail.
type LocationMapper struct {
	content []byte
	points  []SourcePoint // points[i] is the position of content[i]
	line    int
	column  int
}

// NewLocationMapper creates a mapper over content. Nothing is scanned until
// the first LineColumn or Span call.
func NewLocationMapper(content []byte) *LocationMapper {
	return &LocationMapper{content: content, line: 1, column: 1}
}

// ensure extends the table so that points[offset] is valid, if offset is
// within content. Safe to call repeatedly with non-decreasing offsets.
func (lm *LocationMapper) ensure(offset int) {
	if offset >= len(lm.content) {
		offset = len(lm.content) - 1
	}
	for i := len(lm.points); i <= offset; i++ {
		lm.points = append(lm.points, SourcePoint{Line: lm.line, Column: lm.column})
		switch lm.content[i] {
		case '\n':
			lm.line++
			lm.column = 1
		case '\r':
			lm.column = 1
		default:
			lm.column++
		}
	}
}

// LineColumn returns the 1-based (line, column) of the byte at offset. An
// offset at or beyond len(content) reports the position one past the last
// tracked byte (the cursor position after the final character).
func (lm *LocationMapper) LineColumn(offset int) SourcePoint {
	if offset < 0 {
		offset = 0
	}
	lm.ensure(offset)
	if offset < len(lm.points) {
		return lm.points[offset]
	}
	return SourcePoint{Line: lm.line, Column: lm.column}
}

// Span returns the SourceSpan for the half-open byte range [start, end).
// End maps to the last included byte (end-1), not the exclusive boundary
// itself, so a match ending at end-of-line keeps its End point on that line
// rather than spilling onto the next one.
func (lm *LocationMapper) Span(start, end int) SourceSpan {
	if end <= start {
		p := lm.LineColumn(start)
		return SourceSpan{Start: p, End: p}
	}
	return SourceSpan{Start: lm.LineColumn(start), End: lm.LineColumn(end - 1)}
}
