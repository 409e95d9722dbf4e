package vmc

import (
	"encoding/binary"
	"fmt"
	"time"
)

// SCT is one decoded Signed Certificate Timestamp (RFC 6962 Section 3.2).
type SCT struct {
	// Version is the SCT version; only v1 (0) is valid.
	Version uint8

	// LogID identifies the CT log. Must be exactly 32 bytes.
	LogID []byte

	// Timestamp is the log entry time in milliseconds since the Unix epoch.
	Timestamp uint64

	// Extensions are the opaque CtExtensions bytes.
	Extensions []byte

	// Signature is the digitally-signed struct, retained undecoded.
	// Signature verification against trusted log keys is not implemented;
	// validation only applies a structural length floor.
	Signature []byte
}

// sctLogIDLen is the fixed log ID length of a v1 SCT.
const sctLogIDLen = 32

// sctMinSignatureLen is the structural floor applied to the signature
// bytes, not a cryptographic check.
const sctMinSignatureLen = 64

// ParseSCTList decodes the wire form of a SignedCertificateTimestampList
// (RFC 6962 Section 3.3): a 2-byte total length followed by 2-byte
// length-prefixed serialized SCTs.
//
// The outer length must cover the remaining buffer exactly and no inner
// length may overrun it; framing violations yield an empty list. Trailing
// bytes too short to frame another entry are silently ignored, matching
// the observed leniency of deployed decoders.
func ParseSCTList(data []byte) []SCT {
	if len(data) < 2 {
		return nil
	}
	total := int(binary.BigEndian.Uint16(data))
	if total != len(data)-2 {
		return nil
	}

	var scts []SCT
	buf := data[2:]
	for len(buf) >= 2 {
		n := int(binary.BigEndian.Uint16(buf))
		buf = buf[2:]
		if n > len(buf) {
			return nil
		}
		scts = append(scts, parseSCT(buf[:n]))
		buf = buf[n:]
	}

	return scts
}

// parseSCT decodes a single serialized SCT, best effort. Truncated input
// yields a record that fails Validate rather than an error here.
func parseSCT(b []byte) SCT {
	var s SCT
	if len(b) == 0 {
		return s
	}

	s.Version = b[0]
	b = b[1:]

	n := min(sctLogIDLen, len(b))
	s.LogID = b[:n]
	b = b[n:]

	if len(b) < 8 {
		return s
	}
	s.Timestamp = binary.BigEndian.Uint64(b)
	b = b[8:]

	if len(b) < 2 {
		return s
	}
	extLen := int(binary.BigEndian.Uint16(b))
	b = b[2:]
	if extLen > len(b) {
		return s
	}
	s.Extensions = b[:extLen]
	s.Signature = b[extLen:]

	return s
}

// Encode serializes the SCT back to its wire form.
func (s SCT) Encode() []byte {
	b := make([]byte, 0, 1+len(s.LogID)+8+2+len(s.Extensions)+len(s.Signature))
	b = append(b, s.Version)
	b = append(b, s.LogID...)
	b = binary.BigEndian.AppendUint64(b, s.Timestamp)
	b = binary.BigEndian.AppendUint16(b, uint16(len(s.Extensions)))
	b = append(b, s.Extensions...)
	b = append(b, s.Signature...)
	return b
}

// EncodeSCTList serializes SCTs into SignedCertificateTimestampList wire
// form.
func EncodeSCTList(scts []SCT) []byte {
	var inner []byte
	for _, s := range scts {
		e := s.Encode()
		inner = binary.BigEndian.AppendUint16(inner, uint16(len(e)))
		inner = append(inner, e...)
	}

	b := make([]byte, 0, 2+len(inner))
	b = binary.BigEndian.AppendUint16(b, uint16(len(inner)))
	return append(b, inner...)
}

// Validate checks the SCT structurally and temporally against now.
// A timestamp equal to now passes; one past it fails.
func (s SCT) Validate(now time.Time) error {
	if s.Version != 0 {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidSCT, s.Version)
	}
	if len(s.LogID) != sctLogIDLen {
		return fmt.Errorf("%w: log ID is %d bytes, want %d", ErrInvalidSCT, len(s.LogID), sctLogIDLen)
	}
	if s.Timestamp > uint64(now.UnixMilli()) {
		return fmt.Errorf("%w: timestamp %d", ErrSCTFutureTimestamp, s.Timestamp)
	}
	if len(s.Signature) < sctMinSignatureLen {
		return fmt.Errorf("%w: signature is %d bytes, want at least %d", ErrInvalidSCT, len(s.Signature), sctMinSignatureLen)
	}
	return nil
}

// ValidateSCTList requires at least one structurally valid, non-future SCT.
// Returns ErrNoSCTFound for an empty list; otherwise the error of the last
// failing SCT when none validates.
func ValidateSCTList(scts []SCT, now time.Time) error {
	if len(scts) == 0 {
		return ErrNoSCTFound
	}

	var lastErr error
	for _, s := range scts {
		if err := s.Validate(now); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
