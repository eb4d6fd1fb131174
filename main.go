// The main package for the licensescan executable.
package main

import (
	"github.com/licensewatch/license-scanner/cmd"
)

func main() {
	cmd.Execute()
}
