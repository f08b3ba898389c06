//go:build !windows

package config

// DPAPI only exists on Windows; elsewhere tokens are stored as-is.
func encryptSecret(plain string) string { return plain }

func decryptSecret(stored string) string { return stored }
