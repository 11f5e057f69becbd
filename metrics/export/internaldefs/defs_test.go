package internaldefs

import (
	"strings"
	"testing"
)

func TestDefsAreUniqueAndPrefixed(t *testing.T) {
	seen := map[string]bool{}
	for _, def := range CounterDefs {
		if !strings.HasPrefix(def.Name, "gogateway_") || !strings.HasSuffix(def.Name, "_total") {
			t.Fatalf("counter %q does not follow naming convention", def.Name)
		}
		if seen[def.Name] {
			t.Fatalf("duplicate metric name %q", def.Name)
		}
		seen[def.Name] = true
	}
	for _, def := range HistogramDefs {
		if !strings.HasSuffix(def.Name, "_seconds") {
			t.Fatalf("histogram %q should be in seconds", def.Name)
		}
	}
	for _, name := range []string{AuditDroppedName, RenewalInFlightName, RenewalWaitersName} {
		if !strings.HasPrefix(name, "gogateway_") || seen[name] {
			t.Fatalf("gauge or extra series %q clashes or is unprefixed", name)
		}
		seen[name] = true
	}
	if len(HistogramBounds) != 8 {
		t.Fatal("bucket bounds must match the eight client buckets")
	}
}

func TestCumulativeBuckets(t *testing.T) {
	got := CumulativeBuckets(NormalizeBuckets([]uint64{1, 2, 3}))
	want := [8]uint64{1, 3, 6, 6, 6, 6, 6, 6}
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
