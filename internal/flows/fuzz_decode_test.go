package flows

import (
	"testing"
)

// FuzzDecodePair exercises token-response decoding with arbitrary bodies.
// Goal: no panics; a decoded pair is always complete.
func FuzzDecodePair(f *testing.F) {
	f.Add([]byte(`{"access":"A2","refresh":"R2"}`), "R1")
	f.Add([]byte(`{"access":"A2"}`), "R1")
	f.Add([]byte(`{"access":"A2"}`), "")
	f.Add([]byte(`{"access":null,"refresh":"R2"}`), "")
	f.Add([]byte(`{"access":42}`), "R1")
	f.Add([]byte(`[]`), "R1")
	f.Add([]byte(``), "")

	f.Fuzz(func(t *testing.T, body []byte, fallback string) {
		pair, err := DecodePair(body, TokenFields{}, fallback)
		if err != nil {
			return
		}
		if !pair.Complete() {
			t.Fatalf("decoded incomplete pair %v from %q", pair, body)
		}
	})
}
