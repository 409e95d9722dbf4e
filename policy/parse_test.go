package policy

import (
	"errors"
	"testing"
)

func TestParseBad(t *testing.T) {
	bad := func(s string) {
		t.Helper()
		_, err := ParseRecord(s, "example.com", DefaultSelector)
		if !errors.Is(err, ErrSyntax) {
			t.Fatalf("got %v for %q, expected syntax error", err, s)
		}
	}

	bad("v=BIMI1; bogus")                      // segment without =
	bad("v=BIMI1; l=x; l=y")                   // duplicate tag
	bad("v=BIMI1; l=x; unknown=1")             // unknown tag
	bad("v=BIMI2; l=https://x/logo.svg")       // unsupported version
	bad("v=bimi1; l=https://x/logo.svg")       // version is case-sensitive
	bad("l=https://x/logo.svg")                // missing v
	bad("v=BIMI1")                             // missing l
	bad("v=BIMI1; a=https://x/vmc.pem")        // missing l
	bad("l=https://x/logo.svg; v=BIMI1")       // v not first, even though valid later
	bad("a=https://x/vmc.pem; v=BIMI1; l=y")   // v not first
	bad("v=BIMI1; l=https://x/logo.svg; s=1")  // unknown tag with valid rest
}

func TestParseValid(t *testing.T) {
	valid := func(s, location, authority string) {
		t.Helper()
		rec, err := ParseRecord(s, "example.com", DefaultSelector)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", s, err)
		}
		if rec.Location != location {
			t.Errorf("got location %q, want %q", rec.Location, location)
		}
		if rec.AuthorityEvidenceLocation != authority {
			t.Errorf("got authority %q, want %q", rec.AuthorityEvidenceLocation, authority)
		}
		if rec.Domain != "example.com" || rec.Selector != DefaultSelector {
			t.Errorf("record does not carry lookup identity: %+v", rec)
		}
	}

	valid("v=BIMI1; l=https://x/logo.svg", "https://x/logo.svg", "")
	valid("v=BIMI1;l=https://x/logo.svg;a=https://x/vmc.pem", "https://x/logo.svg", "https://x/vmc.pem")
	valid("v=BIMI1; l=https://x/logo.svg; a=https://x/vmc.pem", "https://x/logo.svg", "https://x/vmc.pem")
	valid(" v=BIMI1 ; l = https://x/logo.svg ", "https://x/logo.svg", "")
	valid("v=BIMI1; l=https://x/logo.svg;", "https://x/logo.svg", "")
	valid("v=BIMI1; l=https://x/logo.svg; a=", "https://x/logo.svg", "")
}

func TestParseNoPolicy(t *testing.T) {
	for _, s := range []string{"", "   ", "\t"} {
		if _, err := ParseRecord(s, "example.com", DefaultSelector); !errors.Is(err, ErrNoPolicy) {
			t.Errorf("got %v for %q, expected ErrNoPolicy", err, s)
		}
	}
}

func TestParseDeclined(t *testing.T) {
	declined := func(s string) {
		t.Helper()
		_, err := ParseRecord(s, "example.com", DefaultSelector)
		if !errors.Is(err, ErrDeclined) {
			t.Fatalf("got %v for %q, expected ErrDeclined", err, s)
		}
	}

	declined("v=BIMI1; l=; a=")
	declined("v=BIMI1;l=;a=")
	declined("v=BIMI1; l= ; a= ")

	// Only the exact all-empty combination declines. An empty l alone is
	// not a decline.
	if _, err := ParseRecord("v=BIMI1; l=", "example.com", DefaultSelector); errors.Is(err, ErrDeclined) {
		t.Error("empty l without a must not decline")
	}
}

func TestParseCollect(t *testing.T) {
	rec, collected, err := ParseRecordCollect("v=BIMI1; bogus; l=https://x/logo.svg; junk=1", "example.com", DefaultSelector)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(collected) != 2 {
		t.Fatalf("got %d collected errors, want 2: %v", len(collected), collected)
	}
	for _, cerr := range collected {
		if !errors.Is(cerr, ErrSyntax) {
			t.Errorf("collected error %v is not a syntax error", cerr)
		}
	}
	if rec == nil || rec.Location != "https://x/logo.svg" {
		t.Errorf("expected best-effort record, got %+v", rec)
	}

	// Declined is terminal even in collect mode.
	if _, _, err := ParseRecordCollect("v=BIMI1; l=; a=", "example.com", DefaultSelector); !errors.Is(err, ErrDeclined) {
		t.Errorf("got %v, expected ErrDeclined", err)
	}
}

func TestRecordString(t *testing.T) {
	rec := Record{Location: "https://x/logo.svg", AuthorityEvidenceLocation: "https://x/vmc.pem"}
	want := "v=BIMI1; l=https://x/logo.svg; a=https://x/vmc.pem"
	if got := rec.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	rec = Record{Location: "https://x/logo.svg"}
	want = "v=BIMI1; l=https://x/logo.svg"
	if got := rec.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
