package utils

import (
	"fmt"
	"net"
	"strings"
)

const pemMarker = "-----BEGIN"

// IsPEM reports whether value holds inline PEM material rather than a file path.
func IsPEM(value string) bool {
	return strings.HasPrefix(strings.TrimSpace(value), pemMarker)
}

func ValidateHost(host string) error {
	if host == "" {
		return fmt.Errorf("host must not be empty")
	}
	if net.ParseIP(host) != nil {
		return nil
	}
	if strings.ContainsAny(host, " /\\:") {
		return fmt.Errorf("invalid host: %s", host)
	}
	return nil
}

func ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be within 1-65535: %d", port)
	}
	return nil
}

// ValidateNodeName follows the instance naming rules shared by LXD and GCE:
// lower-case letters, digits and hyphens, at most 63 characters.
func ValidateNodeName(name string) error {
	if name == "" {
		return fmt.Errorf("node name must not be empty")
	}

	if len(name) > 63 {
		return fmt.Errorf("node name must not exceed 63 characters")
	}

	for _, char := range name {
		if !((char >= 'a' && char <= 'z') || (char >= '0' && char <= '9') || char == '-') {
			return fmt.Errorf("node name may only contain lower-case letters, digits and hyphens: %s", name)
		}
	}

	if strings.HasPrefix(name, "-") || strings.HasSuffix(name, "-") {
		return fmt.Errorf("node name must not start or end with a hyphen: %s", name)
	}

	if name[0] >= '0' && name[0] <= '9' {
		return fmt.Errorf("node name must start with a letter: %s", name)
	}

	return nil
}

// ValidatePrivateKey checks that key is inline PEM holding a private key.
// Parsing is left to the SSH client, which also has the passphrase.
func ValidatePrivateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("private key must not be empty")
	}
	if !IsPEM(key) || !strings.Contains(key, "PRIVATE KEY-----") || !strings.Contains(key, "-----END") {
		return fmt.Errorf("private key must be a PEM encoded private key")
	}
	return nil
}
