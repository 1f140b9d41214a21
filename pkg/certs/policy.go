package certs

import (
	"fmt"
	"strings"

	"github.com/roostdev/roost/pkg/rooterr"
	"github.com/roostdev/roost/pkg/types"
)

// ValidateDomainName rejects names that are not syntactically valid DNS
// labels, start with "*", are the bare reserved label "localhost", or
// whose eTLD is outside types.DefaultAllowedTLDs — unless allowUnlisted
// is set (the CLI's --allow flag).
func ValidateDomainName(name string, allowUnlisted bool) error {
	if name == "" || name == "localhost" {
		return fmt.Errorf("%w: %q is reserved", rooterr.ErrInvalidDomain, name)
	}
	if strings.HasPrefix(name, "*") {
		return fmt.Errorf("%w: %q must not start with a wildcard", rooterr.ErrInvalidDomain, name)
	}
	labels := strings.Split(name, ".")
	if len(labels) < 2 {
		return fmt.Errorf("%w: %q has no top-level domain", rooterr.ErrInvalidDomain, name)
	}
	for _, label := range labels {
		if !isValidDNSLabel(label) {
			return fmt.Errorf("%w: %q is not a valid DNS label in %q", rooterr.ErrInvalidDomain, label, name)
		}
	}
	if !allowUnlisted {
		tld := labels[len(labels)-1]
		if !types.DefaultAllowedTLDs[tld] {
			return fmt.Errorf("%w: %q is not in the allowed TLD list (use --allow)", rooterr.ErrInvalidDomain, tld)
		}
	}
	return nil
}

func isValidDNSLabel(label string) bool {
	if label == "" || len(label) > 63 {
		return false
	}
	for i := 0; i < len(label); i++ {
		c := label[i]
		alnum := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
		if !alnum && c != '-' {
			return false
		}
	}
	return label[0] != '-' && label[len(label)-1] != '-'
}
