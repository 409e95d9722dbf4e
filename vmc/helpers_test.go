package vmc

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"math/big"
	"testing"
	"time"
)

// testCA holds a self-signed CA and its key for issuing test leaves.
type testCA struct {
	cert *x509.Certificate
	key  *ecdsa.PrivateKey
}

func newTestCA(t *testing.T) *testCA {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{Organization: []string{"Test Mark CA"}, CommonName: "Test Mark CA"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatal(err)
	}

	return &testCA{cert: cert, key: key}
}

func (ca *testCA) pool() *x509.CertPool {
	pool := x509.NewCertPool()
	pool.AddCert(ca.cert)
	return pool
}

// leafConfig controls the test VMC leaf issued by issueLeaf.
type leafConfig struct {
	dnsNames   []string
	brandEKU   bool
	notBefore  time.Time
	notAfter   time.Time
	extensions []pkix.Extension
}

func (ca *testCA) issueLeaf(t *testing.T, cfg leafConfig) *x509.Certificate {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	notBefore := cfg.notBefore
	if notBefore.IsZero() {
		notBefore = time.Now().Add(-time.Hour)
	}
	notAfter := cfg.notAfter
	if notAfter.IsZero() {
		notAfter = time.Now().Add(24 * time.Hour)
	}

	template := &x509.Certificate{
		SerialNumber:    big.NewInt(42),
		Subject:         pkix.Name{Organization: []string{"Example Brand Inc"}},
		NotBefore:       notBefore,
		NotAfter:        notAfter,
		DNSNames:        cfg.dnsNames,
		KeyUsage:        x509.KeyUsageDigitalSignature,
		ExtraExtensions: cfg.extensions,
	}
	if cfg.brandEKU {
		template.UnknownExtKeyUsage = []asn1.ObjectIdentifier{OIDExtKeyUsageBrandIndicator}
	}

	der, err := x509.CreateCertificate(rand.Reader, template, ca.cert, &key.PublicKey, ca.key)
	if err != nil {
		t.Fatal(err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatal(err)
	}
	return cert
}

func pemEncode(t *testing.T, certs ...*x509.Certificate) []byte {
	t.Helper()

	var out []byte
	for _, cert := range certs {
		out = append(out, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})...)
	}
	return out
}

// marshalRaw builds a single tagged element around content bytes.
func marshalRaw(t *testing.T, class, tag int, content []byte) []byte {
	t.Helper()

	b, err := asn1.Marshal(asn1.RawValue{
		Class:      class,
		Tag:        tag,
		IsCompound: true,
		Bytes:      content,
	})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

// marshal-only mirror of logotypeDetails: encoding/asn1 refuses to marshal
// a string-type tag on a slice, so the URIs carry their IA5String tag as
// raw values instead.
type testLogotypeDetails struct {
	MediaType    string `asn1:"ia5"`
	LogotypeHash []hashAlgAndValue
	LogotypeURI  []asn1.RawValue
}

// marshal-only mirror of logotypeImage without the optional imageInfo.
type testLogotypeImage struct {
	ImageDetails testLogotypeDetails
}

// buildLogotypeExtn assembles a LogotypeExtn DER carrying the given hash
// entries in a direct subject logo.
func buildLogotypeExtn(t *testing.T, hashes []hashAlgAndValue) []byte {
	t.Helper()

	images := []testLogotypeImage{{
		ImageDetails: testLogotypeDetails{
			MediaType:    "image/svg+xml",
			LogotypeHash: hashes,
			LogotypeURI: []asn1.RawValue{{
				Tag:   asn1.TagIA5String,
				Bytes: []byte("https://example.com/logo.svg"),
			}},
		},
	}}
	imageSeq, err := asn1.Marshal(images)
	if err != nil {
		t.Fatal(err)
	}

	// direct [0] IMPLICIT LogotypeData: the image sequence is its only field.
	direct := marshalRaw(t, asn1.ClassContextSpecific, 0, imageSeq)
	// subjectLogo [2] EXPLICIT LogotypeInfo
	subjectLogo := marshalRaw(t, asn1.ClassContextSpecific, 2, direct)
	// LogotypeExtn ::= SEQUENCE { ... }
	return marshalRaw(t, asn1.ClassUniversal, asn1.TagSequence, subjectLogo)
}

func sha256Hash(t *testing.T, data []byte) hashAlgAndValue {
	t.Helper()

	return hashAlgAndValue{
		HashAlg:   pkix.AlgorithmIdentifier{Algorithm: oidDigestSHA256},
		HashValue: AlgSHA256.digest(data),
	}
}
