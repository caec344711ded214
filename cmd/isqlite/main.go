// Command isqlite is a thin front-end over the isqlite package: it
// resolves a schema registered with isqlite.RegisterSchema, diffs it
// against a live database, and applies or prints the result.
package main

import "os"

func main() {
	os.Exit(Execute())
}
