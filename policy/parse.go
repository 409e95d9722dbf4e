package policy

import (
	"fmt"
	"strings"
)

// tag is a single key=value pair from a BIMI record, in record order.
type tag struct {
	name  string
	value string
}

// parseTags splits a raw TXT payload into ordered key=value pairs.
//
// Segments are separated by ";", empty segments are discarded, and each
// segment is split on its first "=". Tag names are lower-cased, names and
// values are trimmed. A segment without "=" and a duplicated tag name are
// format errors; in collect mode they are recorded and the segment skipped.
func parseTags(txt string, collect bool) ([]tag, []error, error) {
	var tags []tag
	var collected []error
	seen := map[string]bool{}

	fail := func(format string, args ...any) error {
		err := fmt.Errorf("%w: %s", ErrSyntax, fmt.Sprintf(format, args...))
		if collect {
			collected = append(collected, err)
			return nil
		}
		return err
	}

	for _, segment := range strings.Split(txt, ";") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		name, value, ok := strings.Cut(segment, "=")
		if !ok {
			if err := fail("invalid tag %q", segment); err != nil {
				return nil, nil, err
			}
			continue
		}

		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.TrimSpace(value)

		if seen[name] {
			if err := fail("duplicate tag %q", name); err != nil {
				return nil, nil, err
			}
			continue
		}
		seen[name] = true

		tags = append(tags, tag{name: name, value: value})
	}

	return tags, collected, nil
}

// ParseRecord parses a BIMI TXT record and applies the semantic rules.
//
// The returned record carries the given domain and selector, which must be
// the values actually used for the lookup (post-fallback).
//
// Returns ErrNoPolicy for an empty record, ErrDeclined when both "l=" and
// "a=" are present but empty, and ErrSyntax (wrapped with detail) for
// grammar or semantic violations.
func ParseRecord(txt, domain, selector string) (*Record, error) {
	rec, _, err := parseRecord(txt, domain, selector, false)
	return rec, err
}

// ParseRecordCollect is like ParseRecord but collects tag grammar and
// semantic violations instead of failing on the first one. The returned
// record is best-effort. ErrNoPolicy and ErrDeclined are still returned as
// the error value: they are terminal outcomes, not format failures.
func ParseRecordCollect(txt, domain, selector string) (*Record, []error, error) {
	return parseRecord(txt, domain, selector, true)
}

func parseRecord(txt, domain, selector string, collect bool) (*Record, []error, error) {
	if strings.TrimSpace(txt) == "" {
		return nil, nil, ErrNoPolicy
	}

	tags, collected, err := parseTags(txt, collect)
	if err != nil {
		return nil, nil, err
	}

	fail := func(format string, args ...any) error {
		err := fmt.Errorf("%w: %s", ErrSyntax, fmt.Sprintf(format, args...))
		if collect {
			collected = append(collected, err)
			return nil
		}
		return err
	}

	byName := map[string]string{}
	for _, t := range tags {
		byName[t.name] = t.value
	}

	// Semantic rules, applied in order.
	for _, t := range tags {
		switch t.name {
		case "v", "l", "a":
		default:
			if err := fail("unknown tag %q", t.name); err != nil {
				return nil, nil, err
			}
		}
	}

	for _, required := range []string{"v", "l"} {
		if _, ok := byName[required]; !ok {
			if err := fail("required tag %q not found", required); err != nil {
				return nil, nil, err
			}
		}
	}

	if len(tags) > 0 && tags[0].name != "v" {
		if err := fail("v= is not the first tag"); err != nil {
			return nil, nil, err
		}
	}

	if v, ok := byName["v"]; ok && v != Version {
		if err := fail("unsupported version %q", v); err != nil {
			return nil, nil, err
		}
	}

	location, hasLocation := byName["l"]
	authority, hasAuthority := byName["a"]

	// Both tags present but both empty is an explicit decline, not a
	// format error. Only this exact combination maps to declined.
	if hasLocation && location == "" && hasAuthority && authority == "" {
		return nil, collected, ErrDeclined
	}

	rec := &Record{
		Domain:                    domain,
		Selector:                  selector,
		Location:                  location,
		AuthorityEvidenceLocation: authority,
	}
	return rec, collected, nil
}
