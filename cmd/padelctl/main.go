// Command padelctl seeds and queries a SQLite snapshot of the player graph.
package main

import "github.com/okian/padel/internal/cli"

func main() {
	cli.Execute()
}
