//go:build windows

package config

import "github.com/billgraziano/dpapi"

const secretPrefix = "dpapi:"

// encryptSecret protects a token with the user's DPAPI key so the yaml
// file never stores it in the clear.
func encryptSecret(plain string) string {
	if plain == "" || len(plain) > len(secretPrefix) && plain[:len(secretPrefix)] == secretPrefix {
		return plain
	}
	enc, err := dpapi.Encrypt(plain)
	if err != nil {
		return plain
	}
	return secretPrefix + enc
}

func decryptSecret(stored string) string {
	if len(stored) <= len(secretPrefix) || stored[:len(secretPrefix)] != secretPrefix {
		return stored
	}
	plain, err := dpapi.Decrypt(stored[len(secretPrefix):])
	if err != nil {
		return ""
	}
	return plain
}
