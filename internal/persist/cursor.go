package persist

// cursor is a read position over a fully buffered byte region.
type cursor struct {
	data []byte
	pos  int
}

func (c *cursor) remaining() int {
	return len(c.data) - c.pos
}

// take returns the next n bytes without copying and advances past them.
func (c *cursor) take(n int) ([]byte, error) {
	if n < 0 || n > c.remaining() {
		return nil, newDecodeError(ErrCodeTruncatedStream, c.pos,
			"need %d bytes, %d remain", n, c.remaining())
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *cursor) seek(offset int) error {
	if offset < 0 || offset > len(c.data) {
		return newDecodeError(ErrCodeTruncatedStream, c.pos,
			"seek to %d outside buffer of %d bytes", offset, len(c.data))
	}
	c.pos = offset
	return nil
}
