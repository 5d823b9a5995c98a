package querycmder_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memgraph/api"
	querycmder "github.com/papercomputeco/memgraph/cmd/memgraph/query"
	"github.com/papercomputeco/memgraph/pkg/query"
	testutils "github.com/papercomputeco/memgraph/pkg/utils/test"
)

var _ = Describe("query command", func() {
	var (
		srv      *httptest.Server
		received []byte
		out      *bytes.Buffer
	)

	run := func(stdin string, args ...string) error {
		cmd := querycmder.NewQueryCmd()
		cmd.Flags().String("config-dir", GinkgoT().TempDir(), "")
		cmd.SetArgs(append(args, "--api-target", srv.URL))
		cmd.SetIn(strings.NewReader(stdin))
		cmd.SetOut(out)
		cmd.SetErr(io.Discard)
		return cmd.Execute()
	}

	BeforeEach(func() {
		received = nil
		out = &bytes.Buffer{}

		m := testutils.NewSemantic("Alice likes hiking in the mountains", 1, 0)
		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			received, _ = io.ReadAll(r.Body)
			_ = json.NewEncoder(w).Encode(api.QueryResponse{
				Results: []query.Result{{Memory: m, Score: 0.875}},
				Count:   1,
			})
		}))
		DeferCleanup(srv.Close)
	})

	It("sends the argument and renders a table", func() {
		Expect(run("", `{"filter":{"memory_type":"Semantic"}}`)).To(Succeed())
		Expect(string(received)).To(Equal(`{"filter":{"memory_type":"Semantic"}}`))
		Expect(out.String()).To(ContainSubstring("0.875"))
		Expect(out.String()).To(ContainSubstring("Alice likes hiking"))
	})

	It("reads the query from stdin", func() {
		Expect(run(`{"limit": 3}`)).To(Succeed())
		Expect(string(received)).To(Equal(`{"limit": 3}`))
	})

	It("reads the query from a file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "q.json")
		Expect(os.WriteFile(path, []byte(`{"limit": 1}`), 0o600)).To(Succeed())

		Expect(run("", "--file", path)).To(Succeed())
		Expect(string(received)).To(Equal(`{"limit": 1}`))
	})

	It("prints raw JSON with --json", func() {
		Expect(run("", `{}`, "--json")).To(Succeed())

		var resp api.QueryResponse
		Expect(json.Unmarshal(out.Bytes(), &resp)).To(Succeed())
		Expect(resp.Count).To(Equal(1))
	})

	It("rejects an invalid query before calling the server", func() {
		err := run("", `{"traverse":{"direction":"sideways"}}`)
		Expect(err).To(MatchError(ContainSubstring("invalid query")))
		Expect(received).To(BeNil())
	})
})

var _ = Describe("Render", func() {
	It("reports empty results", func() {
		Expect(querycmder.Render(&api.QueryResponse{Results: []query.Result{}})).To(ContainSubstring("No results found."))
	})
})
