// Command campctl is the park operator's command line: it migrates the
// database, seeds the campsite catalog and answers availability questions.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
