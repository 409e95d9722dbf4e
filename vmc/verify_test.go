package vmc

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
	"testing"
	"time"
)

func TestVerifyPath(t *testing.T) {
	ca := newTestCA(t)

	t.Run("valid leaf", func(t *testing.T) {
		leaf := ca.issueLeaf(t, leafConfig{dnsNames: []string{"example.com"}, brandEKU: true})
		v := &X509Verifier{Roots: ca.pool()}
		if err := v.VerifyPath(leaf, nil); err != nil {
			t.Errorf("VerifyPath() error = %v", err)
		}
	})

	t.Run("missing brand EKU", func(t *testing.T) {
		leaf := ca.issueLeaf(t, leafConfig{dnsNames: []string{"example.com"}})
		v := &X509Verifier{Roots: ca.pool()}
		if err := v.VerifyPath(leaf, nil); !errors.Is(err, ErrMissingBrandEKU) {
			t.Errorf("VerifyPath() error = %v, want %v", err, ErrMissingBrandEKU)
		}
	})

	t.Run("untrusted root", func(t *testing.T) {
		other := newTestCA(t)
		leaf := ca.issueLeaf(t, leafConfig{dnsNames: []string{"example.com"}, brandEKU: true})
		v := &X509Verifier{Roots: other.pool()}
		err := v.VerifyPath(leaf, nil)
		if err == nil {
			t.Fatal("VerifyPath() succeeded with an unrelated trust anchor")
		}
		if !errors.Is(ClassifyPathError(err), ErrNoMatchingIssuer) {
			t.Errorf("ClassifyPathError(%v) did not map to %v", err, ErrNoMatchingIssuer)
		}
	})

	t.Run("expired leaf", func(t *testing.T) {
		leaf := ca.issueLeaf(t, leafConfig{
			dnsNames:  []string{"example.com"},
			brandEKU:  true,
			notBefore: time.Now().Add(-48 * time.Hour),
			notAfter:  time.Now().Add(-24 * time.Hour),
		})
		v := &X509Verifier{Roots: ca.pool()}
		err := v.VerifyPath(leaf, nil)
		if !errors.Is(ClassifyPathError(err), ErrCertExpired) {
			t.Errorf("ClassifyPathError(%v) did not map to %v", err, ErrCertExpired)
		}
	})

	t.Run("not yet valid leaf", func(t *testing.T) {
		leaf := ca.issueLeaf(t, leafConfig{
			dnsNames:  []string{"example.com"},
			brandEKU:  true,
			notBefore: time.Now().Add(24 * time.Hour),
			notAfter:  time.Now().Add(48 * time.Hour),
		})
		v := &X509Verifier{Roots: ca.pool()}
		err := v.VerifyPath(leaf, nil)
		if !errors.Is(ClassifyPathError(err), ErrCertNotYetValid) {
			t.Errorf("ClassifyPathError(%v) did not map to %v", err, ErrCertNotYetValid)
		}
	})

	t.Run("fixed validation time", func(t *testing.T) {
		leaf := ca.issueLeaf(t, leafConfig{dnsNames: []string{"example.com"}, brandEKU: true})
		v := &X509Verifier{
			Roots: ca.pool(),
			Now:   func() time.Time { return time.Now().Add(72 * time.Hour) },
		}
		err := v.VerifyPath(leaf, nil)
		if !errors.Is(ClassifyPathError(err), ErrCertExpired) {
			t.Errorf("ClassifyPathError(%v) did not map to %v", err, ErrCertExpired)
		}
	})

	t.Run("permitted critical extension", func(t *testing.T) {
		leaf := ca.issueLeaf(t, leafConfig{
			dnsNames: []string{"example.com"},
			brandEKU: true,
			extensions: []pkix.Extension{{
				Id:       OIDLogotype,
				Critical: true,
				Value:    buildLogotypeExtn(t, []hashAlgAndValue{sha256Hash(t, []byte("svg"))}),
			}},
		})

		v := &X509Verifier{Roots: ca.pool()}
		if err := v.VerifyPath(leaf, nil); err == nil {
			t.Fatal("VerifyPath() tolerated an unknown critical extension by default")
		}

		v = &X509Verifier{
			Roots:                       ca.pool(),
			PermittedCriticalExtensions: []asn1.ObjectIdentifier{OIDLogotype},
		}
		if err := v.VerifyPath(leaf, nil); err != nil {
			t.Errorf("VerifyPath() error = %v with the extension permitted", err)
		}
	})
}

func TestVerifyDomain(t *testing.T) {
	ca := newTestCA(t)
	leaf := ca.issueLeaf(t, leafConfig{dnsNames: []string{"example.com"}, brandEKU: true})

	tests := []struct {
		name     string
		domain   string
		fallback bool
		want     error
	}{
		{"exact match", "example.com", false, nil},
		{"subdomain without fallback", "mail.example.com", false, ErrUnmatchedDomain},
		{"subdomain with fallback", "mail.example.com", true, nil},
		{"unrelated domain", "other.example", true, ErrUnmatchedDomain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyDomain(leaf, tt.domain, tt.fallback)
			if !errors.Is(err, tt.want) {
				t.Errorf("VerifyDomain(%q, fallback=%v) = %v, want %v", tt.domain, tt.fallback, err, tt.want)
			}
		})
	}
}

func TestMatchSAN(t *testing.T) {
	ca := newTestCA(t)

	tests := []struct {
		name     string
		sans     []string
		domain   string
		selector string
		want     error
	}{
		{"selector SAN for domain", []string{"default._bimi.example.com"}, "example.com", "default", nil},
		{"selector SAN for org domain", []string{"default._bimi.example.com"}, "mail.example.com", "default", nil},
		{"plain SAN for domain", []string{"example.com"}, "example.com", "default", nil},
		{"plain SAN for org domain", []string{"example.com"}, "mail.example.com", "default", nil},
		{"wrong selector", []string{"other._bimi.example.com"}, "example.com", "default", ErrUnmatchedSAN},
		{"plain subdomain SAN", []string{"mail.example.com"}, "example.com", "default", ErrUnmatchedSAN},
		{"no SANs", nil, "example.com", "default", ErrUnmatchedSAN},
		{"mixed set matches on plain", []string{"other._bimi.example.com", "example.com"}, "example.com", "default", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leaf := ca.issueLeaf(t, leafConfig{dnsNames: tt.sans, brandEKU: true})
			err := MatchSAN(leaf, tt.domain, tt.selector)
			if !errors.Is(err, tt.want) {
				t.Errorf("MatchSAN(%v, %q, %q) = %v, want %v", tt.sans, tt.domain, tt.selector, err, tt.want)
			}
		})
	}
}

func TestBindDomain(t *testing.T) {
	ca := newTestCA(t)
	leaf := ca.issueLeaf(t, leafConfig{
		dnsNames: []string{"example.com", "default._bimi.example.com"},
		brandEKU: true,
	})

	if err := BindDomain(leaf, "example.com", "default", false); err != nil {
		t.Errorf("BindDomain() error = %v", err)
	}
	if err := BindDomain(leaf, "mail.example.com", "default", true); err != nil {
		t.Errorf("BindDomain() with fallback error = %v", err)
	}
	if err := BindDomain(leaf, "other.example", "default", true); !errors.Is(err, ErrUnmatchedDomain) {
		t.Errorf("BindDomain() = %v, want %v", err, ErrUnmatchedDomain)
	}
}
