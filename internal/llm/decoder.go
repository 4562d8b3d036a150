package llm

// objectScanner incrementally extracts complete top-level JSON objects from a
// byte stream carrying a pretty-printed JSON array. The upstream chunks bytes
// with no regard for object boundaries, so scan state (buffer, brace depth,
// in-string flag, escape flag, resume offset) persists across calls instead of
// re-parsing the whole buffer each time. Slices are only taken at a closing
// brace, which is a single ASCII byte, so multi-byte characters split across
// chunks are never cut.
type objectScanner struct {
	buf      []byte
	depth    int
	inString bool
	escaped  bool
	pos      int // bytes of buf already scanned for the object in progress
}

// Feed appends raw bytes and returns every complete JSON object now
// available, in stream order. Partial trailing data stays buffered for the
// next call.
func (s *objectScanner) Feed(p []byte) [][]byte {
	s.buf = append(s.buf, p...)
	var objects [][]byte
	for {
		obj := s.next()
		if obj == nil {
			return objects
		}
		objects = append(objects, obj)
	}
}

func (s *objectScanner) next() []byte {
	if s.depth == 0 {
		if !s.skipToObject() {
			return nil
		}
	}

	for s.pos < len(s.buf) {
		c := s.buf[s.pos]
		s.pos++

		if s.escaped {
			s.escaped = false
			continue
		}

		switch c {
		case '\\':
			if s.inString {
				s.escaped = true
			}
		case '"':
			s.inString = !s.inString
		case '{':
			if !s.inString {
				s.depth++
			}
		case '}':
			if s.inString {
				continue
			}
			s.depth--
			if s.depth == 0 {
				obj := make([]byte, s.pos)
				copy(obj, s.buf[:s.pos])
				s.buf = s.buf[s.pos:]
				s.pos = 0
				return obj
			}
		}
	}
	return nil
}

// skipToObject discards array framing (whitespace, brackets, commas) and any
// other byte outside an object until the buffer starts with an object opener.
// It reports whether one was found.
func (s *objectScanner) skipToObject() bool {
	for len(s.buf) > 0 {
		if s.buf[0] == '{' {
			return true
		}
		s.buf = s.buf[1:]
	}
	return false
}
