// Command jamscout crawls itch.io game jams, classifies them as tabletop
// or digital, and keeps the results in a normalized Postgres database.
package main

import "github.com/jamscout/jamscout/cmd"

func main() {
	cmd.Execute()
}
