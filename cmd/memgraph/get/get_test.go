package getcmder_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memgraph/api"
	getcmder "github.com/papercomputeco/memgraph/cmd/memgraph/get"
	"github.com/papercomputeco/memgraph/pkg/memory"
	testutils "github.com/papercomputeco/memgraph/pkg/utils/test"
)

var _ = Describe("get command", func() {
	var (
		srv       *httptest.Server
		m         *memory.Memory
		target    uuid.UUID
		direction string
		out       *bytes.Buffer
	)

	run := func(args ...string) error {
		cmd := getcmder.NewGetCmd()
		cmd.Flags().String("config-dir", GinkgoT().TempDir(), "")
		cmd.SetArgs(append(args, "--api-target", srv.URL))
		cmd.SetOut(out)
		cmd.SetErr(io.Discard)
		return cmd.Execute()
	}

	BeforeEach(func() {
		out = &bytes.Buffer{}
		direction = ""
		m = testutils.NewSemantic("Alice likes hiking", 1, 0)
		m.Metadata["topic"] = "hobbies"
		target = uuid.Must(uuid.NewV7())

		mux := http.NewServeMux()
		mux.HandleFunc("GET /v1/memories/{id}", func(w http.ResponseWriter, r *http.Request) {
			if r.PathValue("id") != m.ID.String() {
				w.WriteHeader(http.StatusNotFound)
				_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "memory not found"})
				return
			}
			_ = json.NewEncoder(w).Encode(m)
		})
		mux.HandleFunc("GET /v1/memories/{id}/edges", func(w http.ResponseWriter, r *http.Request) {
			direction = r.URL.Query().Get("direction")
			outbound := []memory.Edge{{TargetID: target, RelationType: "enjoys", Weight: 0.9}}
			inbound := []memory.InboundEdge{}
			_ = json.NewEncoder(w).Encode(api.EdgesResponse{ID: m.ID, Outbound: &outbound, Inbound: &inbound})
		})
		srv = httptest.NewServer(mux)
		DeferCleanup(srv.Close)
	})

	It("renders the memory with its edges", func() {
		Expect(run(m.ID.String())).To(Succeed())
		Expect(direction).To(Equal("both"))
		Expect(out.String()).To(ContainSubstring("Alice likes hiking"))
		Expect(out.String()).To(ContainSubstring("hobbies"))
		Expect(out.String()).To(ContainSubstring("enjoys"))
		Expect(out.String()).To(ContainSubstring(target.String()))
	})

	It("passes the direction through", func() {
		Expect(run(m.ID.String(), "--direction", "outbound")).To(Succeed())
		Expect(direction).To(Equal("outbound"))
	})

	It("prints JSON with --json", func() {
		Expect(run(m.ID.String(), "--json")).To(Succeed())

		var decoded struct {
			Memory *memory.Memory     `json:"memory"`
			Edges  *api.EdgesResponse `json:"edges"`
		}
		Expect(json.Unmarshal(out.Bytes(), &decoded)).To(Succeed())
		Expect(decoded.Memory.ID).To(Equal(m.ID))
		Expect(*decoded.Edges.Outbound).To(HaveLen(1))
	})

	It("reports unknown memories", func() {
		err := run(uuid.Must(uuid.NewV7()).String())
		Expect(err).To(MatchError(ContainSubstring("memory not found")))
	})

	It("rejects malformed ids", func() {
		Expect(run("not-a-uuid")).To(MatchError(ContainSubstring("invalid memory id")))
	})
})
