// Command xoso-draws collects Vietnamese lottery results and derives analysis tables.
package main

import "github.com/pfrederiksen/xoso-draws/internal/cli"

func main() {
	cli.Execute()
}
