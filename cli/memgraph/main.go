package main

import (
	"os"

	memgraphcmder "github.com/papercomputeco/memgraph/cmd/memgraph"
)

func main() {
	cmd := memgraphcmder.NewMemgraphCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
