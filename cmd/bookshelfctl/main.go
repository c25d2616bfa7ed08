// Command bookshelfctl runs migrations and account maintenance against the
// same database the API uses.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
