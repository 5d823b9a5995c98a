package memgraphcmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	memgraphcmder "github.com/papercomputeco/memgraph/cmd/memgraph"
)

var _ = Describe("NewMemgraphCmd", func() {
	It("registers every subcommand", func() {
		cmd := memgraphcmder.NewMemgraphCmd()
		names := []string{}
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements("serve", "query", "get", "config", "version"))
	})

	It("registers the global flags", func() {
		cmd := memgraphcmder.NewMemgraphCmd()
		Expect(cmd.PersistentFlags().Lookup("debug")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})
})
