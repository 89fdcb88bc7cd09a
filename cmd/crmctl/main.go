// Command crmctl holds the operator tasks around the CRM: preparing the web
// bundle at container start and migrating the database.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
