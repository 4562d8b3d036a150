package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedAll(s *objectScanner, parts ...[]byte) []string {
	var objects []string
	for _, p := range parts {
		for _, obj := range s.Feed(p) {
			objects = append(objects, string(obj))
		}
	}
	return objects
}

func TestScannerSingleObject(t *testing.T) {
	var s objectScanner
	objects := feedAll(&s, []byte(`[{"text":"hello world"}]`))
	assert.Equal(t, []string{`{"text":"hello world"}`}, objects)
}

func TestScannerChunkingInvariance(t *testing.T) {
	// The same object must come out exactly once no matter where the byte
	// stream is split, including splits inside multi-byte characters.
	payloads := []string{
		`[{"text":"hello world"}]`,
		`[ {"text":"héllo, 世界"} , {"text":"again"} ]`,
		"[\n  {\"text\": \"pretty\n printed\"},\n  {\"text\": \"second\"}\n]",
	}

	for _, payload := range payloads {
		var whole objectScanner
		expected := feedAll(&whole, []byte(payload))
		require.NotEmpty(t, expected)

		for cut := 0; cut <= len(payload); cut++ {
			var s objectScanner
			objects := feedAll(&s, []byte(payload[:cut]), []byte(payload[cut:]))
			assert.Equal(t, expected, objects, "payload %q split at byte %d", payload, cut)
		}

		// Worst case: one byte at a time.
		var s objectScanner
		var objects []string
		for i := 0; i < len(payload); i++ {
			for _, obj := range s.Feed([]byte{payload[i]}) {
				objects = append(objects, string(obj))
			}
		}
		assert.Equal(t, expected, objects, "payload %q fed byte by byte", payload)
	}
}

func TestScannerBracesInsideStrings(t *testing.T) {
	var s objectScanner
	objects := feedAll(&s, []byte(`[{"a":"}{]["},{"b":"{{{"}]`))
	assert.Equal(t, []string{`{"a":"}{]["}`, `{"b":"{{{"}`}, objects)
}

func TestScannerEscapedQuotes(t *testing.T) {
	var s objectScanner
	payload := `{"t":"he said \"hi\" and left a } behind"}`
	objects := feedAll(&s, []byte(payload))
	assert.Equal(t, []string{payload}, objects)
}

func TestScannerEscapedBackslashBeforeQuote(t *testing.T) {
	// The backslash escapes itself, so the following quote really closes the
	// string and the brace after it closes the object.
	var s objectScanner
	payload := `{"path":"C:\\"}`
	objects := feedAll(&s, []byte(payload))
	assert.Equal(t, []string{payload}, objects)
}

func TestScannerNestedObjects(t *testing.T) {
	var s objectScanner
	payload := `{"outer":{"inner":{"deep":[1,2,{"x":"y"}]}}}`
	objects := feedAll(&s, []byte(payload))
	assert.Equal(t, []string{payload}, objects)
}

func TestScannerWaitsForIncompleteObject(t *testing.T) {
	var s objectScanner

	assert.Empty(t, s.Feed([]byte(`[{"text":"par`)))
	assert.Empty(t, s.Feed([]byte(`tial`)))

	objects := s.Feed([]byte(`"}]`))
	require.Len(t, objects, 1)
	assert.Equal(t, `{"text":"partial"}`, string(objects[0]))
}

func TestScannerSkipsUnexpectedBytes(t *testing.T) {
	var s objectScanner
	objects := feedAll(&s, []byte("garbage\x01 {\"text\":\"ok\"}"))
	assert.Equal(t, []string{`{"text":"ok"}`}, objects)
}

func TestScannerFramingOnly(t *testing.T) {
	var s objectScanner
	assert.Empty(t, feedAll(&s, []byte(" [ \n , \r\n ] ")))
}

func TestScannerManyObjectsAcrossFeeds(t *testing.T) {
	var s objectScanner
	objects := feedAll(&s,
		[]byte(`[{"n":1},{"n`),
		[]byte(`":2},`),
		[]byte(`{"n":3}`),
		[]byte(`]`),
	)
	assert.Equal(t, []string{`{"n":1}`, `{"n":2}`, `{"n":3}`}, objects)
}
