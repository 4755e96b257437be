package render

import (
	"net/mail"
	"strings"
)

func parseFrom(from string) *mail.Address {
	if from == "" {
		return nil
	}
	if addr, err := mail.ParseAddress(from); err == nil {
		return addr
	}
	// Some headers are a list; take the first valid entry.
	for _, p := range strings.Split(from, ",") {
		if a, err := mail.ParseAddress(strings.TrimSpace(p)); err == nil {
			return a
		}
	}
	return nil
}

// SenderAddress extracts the lowercased address from a From header, or "".
func SenderAddress(from string) string {
	addr := parseFrom(from)
	if addr == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(addr.Address))
}

// SenderName returns the display name from a From header, falling back to
// the address and then to the raw header.
func SenderName(from string) string {
	addr := parseFrom(from)
	switch {
	case addr == nil:
		return strings.TrimSpace(from)
	case addr.Name != "":
		return addr.Name
	default:
		return strings.ToLower(addr.Address)
	}
}
