// Command keygen mints API keys for the service. Keys land in the JSON file
// the server re-reads on every request, so no restart is needed.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/callshield/callshield/internal/auth"
)

func main() {
	name := flag.String("name", "", "label for the new key (required)")
	file := flag.String("file", "api_keys.json", "path to the keys file")
	revoke := flag.String("revoke", "", "deactivate this key instead of creating one")
	flag.Parse()

	if *revoke != "" {
		if err := revokeKey(*file, *revoke); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		fmt.Println("key deactivated")
		return
	}

	if *name == "" {
		fmt.Fprintln(os.Stderr, "error: -name is required")
		flag.Usage()
		os.Exit(1)
	}

	key, err := generateKey()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	keys, err := auth.LoadKeys(*file)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	keys[key] = auth.KeyEntry{
		Name:    *name,
		Created: time.Now().UTC().Format(time.RFC3339),
		Active:  true,
	}
	if err := auth.SaveKeys(*file, keys); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	fmt.Printf("created key for %q in %s\n\n  %s\n\nStore it now; it is shown only once in full.\n", *name, *file, key)
}

// generateKey returns a key like cs_9f8a... with 128 bits of entropy.
func generateKey() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to gather entropy: %w", err)
	}
	return "cs_" + hex.EncodeToString(raw), nil
}

func revokeKey(file, key string) error {
	keys, err := auth.LoadKeys(file)
	if err != nil {
		return err
	}
	entry, ok := keys[key]
	if !ok {
		return fmt.Errorf("key not found in %s", file)
	}
	entry.Active = false
	keys[key] = entry
	return auth.SaveKeys(file, keys)
}
