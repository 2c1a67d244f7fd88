// Command hash-generator produces the bcrypt hash the server expects in
// GAINDEUK_AUTH_ADMIN_PASSWORD_HASH.
package main

import (
	"fmt"
	"os"

	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/service/auth"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: hash-generator <password>")
		os.Exit(2)
	}

	hash, err := auth.HashPassword(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash-generator: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
