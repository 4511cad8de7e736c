// Package main is the entry point for the cricgraph CLI, which loads IPL
// match and ball-by-ball data into a property graph.
package main

import "github.com/pable/cricket-graph/cmd"

func main() {
	cmd.Execute()
}
