package vmc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"time"
)

func testSCT(ts time.Time) SCT {
	return SCT{
		Version:   0,
		LogID:     bytes.Repeat([]byte{0xab}, sctLogIDLen),
		Timestamp: uint64(ts.UnixMilli()),
		Signature: bytes.Repeat([]byte{0xcd}, sctMinSignatureLen),
	}
}

func TestParseSCTListRoundTrip(t *testing.T) {
	now := time.Now()
	want := []SCT{
		testSCT(now.Add(-time.Hour)),
		{
			Version:    0,
			LogID:      bytes.Repeat([]byte{0x01}, sctLogIDLen),
			Timestamp:  uint64(now.UnixMilli()),
			Extensions: []byte{0xde, 0xad},
			Signature:  bytes.Repeat([]byte{0x02}, 100),
		},
	}

	got := ParseSCTList(EncodeSCTList(want))
	if len(got) != len(want) {
		t.Fatalf("ParseSCTList() = %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if !bytes.Equal(got[i].Encode(), want[i].Encode()) {
			t.Errorf("entry %d does not round-trip:\n got %x\nwant %x", i, got[i].Encode(), want[i].Encode())
		}
	}
}

func TestParseSCTListFraming(t *testing.T) {
	valid := EncodeSCTList([]SCT{testSCT(time.Now())})

	t.Run("empty input", func(t *testing.T) {
		if got := ParseSCTList(nil); got != nil {
			t.Errorf("ParseSCTList(nil) = %v, want nil", got)
		}
	})

	t.Run("short input", func(t *testing.T) {
		if got := ParseSCTList([]byte{0x00}); got != nil {
			t.Errorf("ParseSCTList() = %v, want nil", got)
		}
	})

	t.Run("outer length short of buffer", func(t *testing.T) {
		b := append([]byte(nil), valid...)
		binary.BigEndian.PutUint16(b, uint16(len(b)-3))
		if got := ParseSCTList(b); got != nil {
			t.Errorf("ParseSCTList() = %v, want nil", got)
		}
	})

	t.Run("outer length past buffer", func(t *testing.T) {
		b := append([]byte(nil), valid...)
		binary.BigEndian.PutUint16(b, uint16(len(b)))
		if got := ParseSCTList(b); got != nil {
			t.Errorf("ParseSCTList() = %v, want nil", got)
		}
	})

	t.Run("inner length overrun", func(t *testing.T) {
		b := append([]byte(nil), valid...)
		binary.BigEndian.PutUint16(b[2:], uint16(len(b))) // inner frame claims more than remains
		if got := ParseSCTList(b); got != nil {
			t.Errorf("ParseSCTList() = %v, want nil", got)
		}
	})

	t.Run("trailing byte ignored", func(t *testing.T) {
		b := append([]byte(nil), valid...)
		b = append(b, 0x00)
		binary.BigEndian.PutUint16(b, uint16(len(b)-2))
		got := ParseSCTList(b)
		if len(got) != 1 {
			t.Errorf("ParseSCTList() = %d entries, want 1", len(got))
		}
	})

	t.Run("empty list", func(t *testing.T) {
		if got := ParseSCTList([]byte{0x00, 0x00}); len(got) != 0 {
			t.Errorf("ParseSCTList() = %d entries, want 0", len(got))
		}
	})
}

func TestSCTValidate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		sct  SCT
		want error
	}{
		{"valid", testSCT(now.Add(-time.Hour)), nil},
		{"timestamp equal to now", testSCT(now), nil},
		{"future timestamp", testSCT(now.Add(time.Hour)), ErrSCTFutureTimestamp},
		{"bad version", func() SCT { s := testSCT(now); s.Version = 1; return s }(), ErrInvalidSCT},
		{"short log ID", func() SCT { s := testSCT(now); s.LogID = s.LogID[:16]; return s }(), ErrInvalidSCT},
		{"short signature", func() SCT { s := testSCT(now); s.Signature = s.Signature[:10]; return s }(), ErrInvalidSCT},
		{"truncated record", SCT{}, ErrInvalidSCT},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.sct.Validate(now); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestValidateSCTList(t *testing.T) {
	now := time.Now()

	t.Run("empty list", func(t *testing.T) {
		if err := ValidateSCTList(nil, now); !errors.Is(err, ErrNoSCTFound) {
			t.Errorf("ValidateSCTList() = %v, want %v", err, ErrNoSCTFound)
		}
	})

	t.Run("one valid suffices", func(t *testing.T) {
		scts := []SCT{testSCT(now.Add(time.Hour)), testSCT(now.Add(-time.Hour))}
		if err := ValidateSCTList(scts, now); err != nil {
			t.Errorf("ValidateSCTList() = %v", err)
		}
	})

	t.Run("none valid reports last failure", func(t *testing.T) {
		bad := testSCT(now)
		bad.Version = 1
		scts := []SCT{testSCT(now.Add(time.Hour)), bad}
		err := ValidateSCTList(scts, now)
		if !errors.Is(err, ErrInvalidSCT) {
			t.Errorf("ValidateSCTList() = %v, want %v", err, ErrInvalidSCT)
		}
	})
}

func TestParseSCTTruncatedFailsValidate(t *testing.T) {
	full := testSCT(time.Now()).Encode()
	truncated := full[:1+sctLogIDLen+4] // cut mid-timestamp

	list := make([]byte, 0, 4+len(truncated))
	list = binary.BigEndian.AppendUint16(list, uint16(2+len(truncated)))
	list = binary.BigEndian.AppendUint16(list, uint16(len(truncated)))
	list = append(list, truncated...)

	scts := ParseSCTList(list)
	if len(scts) != 1 {
		t.Fatalf("ParseSCTList() = %d entries, want 1", len(scts))
	}
	if err := scts[0].Validate(time.Now()); !errors.Is(err, ErrInvalidSCT) {
		t.Errorf("Validate() = %v, want %v", err, ErrInvalidSCT)
	}
}
