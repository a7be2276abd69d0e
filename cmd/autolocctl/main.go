// Command autolocctl inspects a running autolocd instance over its
// JSON stats server. Grounded on cmd/ptpcheck's cobra-based CLI shape.
package main

import "github.com/gfz-potsdam/autoloc/cmd/autolocctl/cmd"

func main() {
	cmd.Execute()
}
