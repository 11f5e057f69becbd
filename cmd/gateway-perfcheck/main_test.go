package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestParseTracked(t *testing.T) {
	got, err := parseTracked("BenchmarkA=ns/op,allocs/op; BenchmarkB=ns/op")
	if err != nil {
		t.Fatalf("parseTracked failed: %v", err)
	}
	if len(got["BenchmarkA"]) != 2 || len(got["BenchmarkB"]) != 1 {
		t.Fatalf("unexpected tracked set %v", got)
	}
	if _, err := parseTracked("BenchmarkA"); err == nil {
		t.Fatal("expected error for entry without units")
	}
}

func TestCompareFlagsRegression(t *testing.T) {
	track := tracked{"BenchmarkExecuteAuthenticated": {"ns/op", "allocs/op"}}
	dir := t.TempDir()
	base := filepath.Join(dir, "base.txt")
	cand := filepath.Join(dir, "cand.txt")
	if err := os.WriteFile(base, []byte("BenchmarkExecuteAuthenticated-8  1000  100 ns/op  64 B/op  2 allocs/op\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cand, []byte("BenchmarkExecuteAuthenticated-8  1000  200 ns/op  64 B/op  2 allocs/op\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	baseline, err := parseBenchmarkFile(base, track)
	if err != nil {
		t.Fatal(err)
	}
	candidate, err := parseBenchmarkFile(cand, track)
	if err != nil {
		t.Fatal(err)
	}

	failures := compare(io.Discard, track, baseline, candidate, 0.30)
	if len(failures) != 1 {
		t.Fatalf("expected one ns/op regression, got %v", failures)
	}
}

func TestNormalizeBenchmarkName(t *testing.T) {
	if got := normalizeBenchmarkName("BenchmarkRender-16"); got != "BenchmarkRender" {
		t.Fatalf("unexpected name %q", got)
	}
	if got := normalizeBenchmarkName("BenchmarkRender"); got != "BenchmarkRender" {
		t.Fatalf("unexpected name %q", got)
	}
}
