package configcmder_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/memgraph/cmd/memgraph/config"
	"github.com/papercomputeco/memgraph/pkg/config"
)

var _ = Describe("NewConfigCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := configcmder.NewConfigCmd()
		Expect(cmd.Use).To(Equal("config"))
	})

	It("has set, get, and list subcommands", func() {
		cmd := configcmder.NewConfigCmd()
		subcommands := []string{}
		for _, sub := range cmd.Commands() {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("set", "get", "list"))
	})
})

var _ = Describe("Config command execution", func() {
	var (
		configDir string
		out       *bytes.Buffer
	)

	execute := func(args ...string) error {
		root := &cobra.Command{Use: "memgraph"}
		root.PersistentFlags().String("config-dir", "", "")
		root.AddCommand(configcmder.NewConfigCmd())
		root.SetArgs(append([]string{"config", "--config-dir", configDir}, args...))
		root.SetOut(out)
		root.SetErr(io.Discard)
		return root.Execute()
	}

	BeforeEach(func() {
		configDir = GinkgoT().TempDir()
		out = &bytes.Buffer{}
	})

	Describe("set subcommand", func() {
		It("writes config.toml", func() {
			Expect(execute("set", "storage.provider", "postgres")).To(Succeed())

			_, err := os.Stat(filepath.Join(configDir, "config.toml"))
			Expect(err).NotTo(HaveOccurred())

			cfger, err := config.NewConfiger(configDir)
			Expect(err).NotTo(HaveOccurred())
			cfg, err := cfger.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Storage.Provider).To(Equal("postgres"))
		})

		It("rejects unknown keys", func() {
			Expect(execute("set", "proxy.provider", "anthropic")).To(MatchError(ContainSubstring("unknown config key")))
		})

		It("rejects a non-numeric value for a numeric key", func() {
			Expect(execute("set", "ingest.workers", "many")).To(HaveOccurred())
		})

		It("requires exactly two arguments", func() {
			Expect(execute("set", "storage.provider")).To(HaveOccurred())
		})
	})

	Describe("get subcommand", func() {
		It("prints a value that was set", func() {
			Expect(execute("set", "vector_index.dimensions", "768")).To(Succeed())
			out.Reset()

			Expect(execute("get", "vector_index.dimensions")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("768"))
		})

		It("rejects unknown keys", func() {
			Expect(execute("get", "nope")).To(HaveOccurred())
		})
	})

	Describe("list subcommand", func() {
		It("prints every key", func() {
			Expect(execute("list")).To(Succeed())
			for _, key := range config.ValidConfigKeys() {
				Expect(out.String()).To(ContainSubstring(key))
			}
		})

		It("rejects arguments", func() {
			Expect(execute("list", "extra")).To(HaveOccurred())
		})
	})
})
