// ./main.go
package main

import (
	"github.com/xkilldash9x/cbombench/cmd"
)

// main is the entry point for the cbombench application.
func main() {
	cmd.Execute()
}
