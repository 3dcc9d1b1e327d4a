// Standalone confirmation-code hash generator, for provisioning users by
// hand with sqlite3.
// Usage: go run tools/gencode.go [code]
//
// With no argument a fresh code is generated and printed alongside its hash.
//
//go:build ignore

package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	code := uuid.NewString()
	if len(os.Args) > 1 {
		code = os.Args[1]
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("code: %s\nhash: %s\n", code, hash)
}
