// Command totpkey prints a random key suitable for TOTP_ENCRYPTION_KEY.
package main

import (
	"fmt"
	"log"

	"github.com/cashlens/cashlens/pkg/totp"
)

func main() {
	encodedKey, err := totp.GenerateEncodedEncryptionKey()
	if err != nil {
		log.Fatalf("Failed to generate encoded encryption key: %v", err)
	}

	fmt.Printf("Generated encryption key (for the TOTP_ENCRYPTION_KEY env var):\n---\n%s\n---\n", encodedKey)
}
