// Package bimi validates Brand Indicators for Message Identification:
// whether a mail-sending domain is entitled to display its brand logo.
//
// Validation chains three trust checks: a DNS-published assertion record
// naming a logo and, optionally, a certificate vouching for it; a
// Verified Mark Certificate (VMC) cryptographically bound to the domain
// and to the exact bytes of the logo; and the certificate extensions that
// carry the logo's hash and Certificate Transparency proofs.
//
// # Validating a domain
//
//	v := bimi.NewValidator(bimi.Config{
//	    Cache:  cache.New(0, 0),
//	    Logger: logger,
//	})
//
//	outcome := v.Validate(ctx, "example.com", bimi.Options{})
//	switch outcome.Status {
//	case bimi.StatusPass:
//	    fmt.Println("logo certified for", outcome.Record.Domain)
//	case bimi.StatusNone, bimi.StatusDeclined:
//	    // no logo to display, by the domain's choice
//	case bimi.StatusTemperror:
//	    // retry later
//	case bimi.StatusPermerror:
//	    fmt.Println(outcome.Kind, outcome.Message)
//	}
//
// # Policy lookup only
//
// The policy package can be used standalone to resolve and parse the
// assertion record without certificate validation:
//
//	rec, err := policy.Lookup(ctx, resolver, "example.com", "default")
//
// # Collect-all mode
//
// By default validation stops at the first failure. Options.CollectAll
// continues past independent failures and accumulates them, which suits
// diagnostic tooling over mail-flow enforcement:
//
//	outcome := v.Validate(ctx, domain, bimi.Options{CollectAll: true})
//	for _, err := range outcome.Collected {
//	    fmt.Println(err)
//	}
package bimi
