// Command vinv maintains a schema-validated virtual tree inventory.
package main

import "github.com/vinv-group/vinv-go/internal/cli"

func main() {
	cli.Execute()
}
