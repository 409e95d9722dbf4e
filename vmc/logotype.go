package vmc

import (
	"bytes"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
)

// HashAlgorithm identifies the digest algorithm of a logotype hash entry.
type HashAlgorithm int

const (
	// AlgUnknown marks an algorithm OID this package does not support.
	// Unknown entries are retained so callers can report an unsupported
	// algorithm instead of silently skipping it.
	AlgUnknown HashAlgorithm = iota
	AlgMD5
	AlgSHA1
	AlgSHA256
	AlgSHA384
	AlgSHA512
)

// Digest algorithm OIDs accepted in logotype hash entries.
var (
	oidDigestMD5    = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 5}
	oidDigestSHA1   = asn1.ObjectIdentifier{1, 3, 14, 3, 2, 26}
	oidDigestSHA256 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 1}
	oidDigestSHA384 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 2}
	oidDigestSHA512 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 3}
)

// String returns the lower-case conventional name of the algorithm.
func (a HashAlgorithm) String() string {
	switch a {
	case AlgMD5:
		return "md5"
	case AlgSHA1:
		return "sha1"
	case AlgSHA256:
		return "sha256"
	case AlgSHA384:
		return "sha384"
	case AlgSHA512:
		return "sha512"
	default:
		return "unknown"
	}
}

func algorithmFromOID(oid asn1.ObjectIdentifier) HashAlgorithm {
	switch {
	case oid.Equal(oidDigestMD5):
		return AlgMD5
	case oid.Equal(oidDigestSHA1):
		return AlgSHA1
	case oid.Equal(oidDigestSHA256):
		return AlgSHA256
	case oid.Equal(oidDigestSHA384):
		return AlgSHA384
	case oid.Equal(oidDigestSHA512):
		return AlgSHA512
	default:
		return AlgUnknown
	}
}

// digest computes the digest of data with this algorithm. Returns nil for
// AlgUnknown.
func (a HashAlgorithm) digest(data []byte) []byte {
	switch a {
	case AlgMD5:
		sum := md5.Sum(data)
		return sum[:]
	case AlgSHA1:
		sum := sha1.Sum(data)
		return sum[:]
	case AlgSHA256:
		sum := sha256.Sum256(data)
		return sum[:]
	case AlgSHA384:
		sum := sha512.Sum384(data)
		return sum[:]
	case AlgSHA512:
		sum := sha512.Sum512(data)
		return sum[:]
	default:
		return nil
	}
}

// HashEntry is one (algorithm, digest) pair decoded from the logotype
// extension's subject logo.
type HashEntry struct {
	Algorithm HashAlgorithm
	Digest    []byte
}

// Matches reports whether data hashes to this entry's digest under the
// entry's own algorithm. An AlgUnknown entry never matches; a digest
// computed with a different algorithm coincidentally equal to the stored
// bytes must never count.
func (h HashEntry) Matches(data []byte) bool {
	sum := h.Algorithm.digest(data)
	return sum != nil && bytes.Equal(sum, h.Digest)
}

// AnyHashMatches reports whether at least one entry matches data.
func AnyHashMatches(entries []HashEntry, data []byte) bool {
	for _, h := range entries {
		if h.Matches(data) {
			return true
		}
	}
	return false
}

// ASN.1 structures of RFC 3709 that the decoder unmarshals directly.
// The tagged outer layers (LogotypeExtn fields, the LogotypeInfo CHOICE,
// and the LogotypeData fields) are walked by hand because encoding/asn1
// has no CHOICE support.
//
//	HashAlgAndValue ::= SEQUENCE {
//	  hashAlg   AlgorithmIdentifier,
//	  hashValue OCTET STRING }
type hashAlgAndValue struct {
	HashAlg   pkix.AlgorithmIdentifier
	HashValue []byte
}

//	LogotypeDetails ::= SEQUENCE {
//	  mediaType    IA5String,
//	  logotypeHash SEQUENCE SIZE (1..MAX) OF HashAlgAndValue,
//	  logotypeURI  SEQUENCE SIZE (1..MAX) OF IA5String }
type logotypeDetails struct {
	MediaType    string `asn1:"ia5"`
	LogotypeHash []hashAlgAndValue
	LogotypeURI  []string `asn1:"ia5"`
}

//	LogotypeImage ::= SEQUENCE {
//	  imageDetails LogotypeDetails,
//	  imageInfo    LogotypeImageInfo OPTIONAL }
type logotypeImage struct {
	ImageDetails logotypeDetails
	ImageInfo    asn1.RawValue `asn1:"optional"`
}

// DecodeLogotypeHashes decodes the payload of a logotype extension
// (LogotypeExtn, RFC 3709) and returns the hash entries of the subject
// logo's images.
//
// Only the subjectLogo field is consulted, and only its "direct" CHOICE
// alternative carrying an image sequence is supported: an indirect
// reference fails with ErrNoSupportedImage, a direct logo without images
// with ErrNoImageFound. Unknown digest algorithm OIDs are retained as
// AlgUnknown entries. An empty result is not an error here; the caller
// raises ErrNoHashFound.
func DecodeLogotypeHashes(extnValue []byte) ([]HashEntry, error) {
	subjectLogo, err := subjectLogoValue(extnValue)
	if err != nil {
		return nil, err
	}

	// LogotypeInfo ::= CHOICE {
	//   direct   [0] LogotypeData,
	//   indirect [1] LogotypeReference }
	var info asn1.RawValue
	if _, err := asn1.Unmarshal(subjectLogo, &info); err != nil {
		return nil, fmt.Errorf("vmc: bad subjectLogo encoding: %w", err)
	}
	if info.Class != asn1.ClassContextSpecific || info.Tag != 0 {
		return nil, ErrNoSupportedImage
	}

	images, err := directLogoImages(info.Bytes)
	if err != nil {
		return nil, err
	}

	var entries []HashEntry
	for _, image := range images {
		var li logotypeImage
		if _, err := asn1.Unmarshal(image.FullBytes, &li); err != nil {
			return nil, fmt.Errorf("vmc: bad LogotypeImage encoding: %w", err)
		}
		for _, h := range li.ImageDetails.LogotypeHash {
			entries = append(entries, HashEntry{
				Algorithm: algorithmFromOID(h.HashAlg.Algorithm),
				Digest:    h.HashValue,
			})
		}
	}

	return entries, nil
}

// subjectLogoValue walks the LogotypeExtn SEQUENCE and returns the content
// of the EXPLICIT [2] subjectLogo field.
//
//	LogotypeExtn ::= SEQUENCE {
//	  communityLogos [0] EXPLICIT SEQUENCE OF LogotypeInfo OPTIONAL,
//	  issuerLogo     [1] EXPLICIT LogotypeInfo OPTIONAL,
//	  subjectLogo    [2] EXPLICIT LogotypeInfo OPTIONAL,
//	  otherLogos     [3] EXPLICIT SEQUENCE OF OtherLogotypeInfo OPTIONAL }
func subjectLogoValue(extnValue []byte) ([]byte, error) {
	var extn asn1.RawValue
	rest, err := asn1.Unmarshal(extnValue, &extn)
	if err != nil {
		return nil, fmt.Errorf("vmc: bad LogotypeExtn encoding: %w", err)
	}
	if len(rest) > 0 || extn.Class != asn1.ClassUniversal || extn.Tag != asn1.TagSequence {
		return nil, fmt.Errorf("vmc: bad LogotypeExtn encoding: not a sequence")
	}

	buf := extn.Bytes
	for len(buf) > 0 {
		var field asn1.RawValue
		buf, err = asn1.Unmarshal(buf, &field)
		if err != nil {
			return nil, fmt.Errorf("vmc: bad LogotypeExtn field: %w", err)
		}
		if field.Class == asn1.ClassContextSpecific && field.Tag == 2 {
			// EXPLICIT wrapper: content is the LogotypeInfo encoding.
			return field.Bytes, nil
		}
	}

	return nil, ErrNoSupportedImage
}

// directLogoImages walks the fields of an implicitly tagged LogotypeData
// and returns the elements of its image sequence.
//
//	LogotypeData ::= SEQUENCE {
//	  image SEQUENCE OF LogotypeImage OPTIONAL,
//	  audio [1] SEQUENCE OF LogotypeAudio OPTIONAL }
func directLogoImages(data []byte) ([]asn1.RawValue, error) {
	buf := data
	for len(buf) > 0 {
		var field asn1.RawValue
		var err error
		buf, err = asn1.Unmarshal(buf, &field)
		if err != nil {
			return nil, fmt.Errorf("vmc: bad LogotypeData encoding: %w", err)
		}
		// Audio ([1]) and anything else is skipped; only the untagged
		// image sequence matters.
		if field.Class != asn1.ClassUniversal || field.Tag != asn1.TagSequence {
			continue
		}

		var images []asn1.RawValue
		inner := field.Bytes
		for len(inner) > 0 {
			var image asn1.RawValue
			inner, err = asn1.Unmarshal(inner, &image)
			if err != nil {
				return nil, fmt.Errorf("vmc: bad image sequence encoding: %w", err)
			}
			images = append(images, image)
		}
		return images, nil
	}

	return nil, ErrNoImageFound
}
