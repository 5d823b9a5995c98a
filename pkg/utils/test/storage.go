package testutils

import (
	"context"
	"sync"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memgraph/pkg/memory"
	"github.com/papercomputeco/memgraph/pkg/storage"
)

// DescribeDriverContract registers the behaviour every storage.Driver must
// share. newDriver is called before each test; the driver is closed after.
func DescribeDriverContract(newDriver func() storage.Driver) {
	Describe("storage.Driver contract", func() {
		var (
			driver storage.Driver
			ctx    context.Context
		)

		BeforeEach(func() {
			ctx = context.Background()
			driver = newDriver()
		})

		AfterEach(func() {
			if driver != nil {
				Expect(driver.Close()).To(Succeed())
			}
		})

		Describe("SaveMemory and GetMemory", func() {
			It("round trips a memory", func() {
				m := NewSemantic("Alice likes hiking", 0.1, 0.9, 0.1)
				m.Metadata["topic"] = "hobbies"

				Expect(driver.SaveMemory(ctx, m)).To(Succeed())

				got, ok, err := driver.GetMemory(ctx, m.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(ok).To(BeTrue())
				Expect(got).To(Equal(m))
			})

			It("reports absence without an error", func() {
				got, ok, err := driver.GetMemory(ctx, uuid.Must(uuid.NewV7()))
				Expect(err).NotTo(HaveOccurred())
				Expect(ok).To(BeFalse())
				Expect(got).To(BeNil())
			})

			It("overwrites on re-save", func() {
				m := NewEpisodic("first draft", 1, 0)
				Expect(driver.SaveMemory(ctx, m)).To(Succeed())

				m.Content = "second draft"
				m.Metadata = map[string]any{"rev": "2"}
				Expect(driver.SaveMemory(ctx, m)).To(Succeed())

				got, ok, err := driver.GetMemory(ctx, m.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(ok).To(BeTrue())
				Expect(got.Content).To(Equal("second draft"))
				Expect(got.Metadata).To(Equal(map[string]any{"rev": "2"}))

				all, err := driver.ListMemories(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(all).To(HaveLen(1))
			})

			It("returns metadata as JSON values", func() {
				m := NewSemantic("m")
				m.Metadata = map[string]any{
					"count": 3,
					"tags":  []string{"a", "b"},
					"owner": map[string]string{"id": "u1"},
				}
				Expect(driver.SaveMemory(ctx, m)).To(Succeed())

				got, ok, err := driver.GetMemory(ctx, m.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(ok).To(BeTrue())
				Expect(got.Metadata).To(Equal(map[string]any{
					"count": float64(3),
					"tags":  []any{"a", "b"},
					"owner": map[string]any{"id": "u1"},
				}))
			})

			It("rejects nil memories", func() {
				err := driver.SaveMemory(ctx, nil)
				Expect(err).To(HaveOccurred())

				var storageErr *storage.Error
				Expect(err).To(BeAssignableToTypeOf(storageErr))
			})
		})

		Describe("ListMemories", func() {
			It("returns an empty list for an empty store", func() {
				all, err := driver.ListMemories(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(all).To(BeEmpty())
			})

			It("returns every memory in id order", func() {
				a := NewSemantic("a", 1, 0)
				b := NewSemantic("b", 0, 1)
				c := NewEpisodic("c", 1, 1)

				for _, m := range []*memory.Memory{c, a, b} {
					Expect(driver.SaveMemory(ctx, m)).To(Succeed())
				}

				all, err := driver.ListMemories(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(all).To(HaveLen(3))
				Expect(all[0].ID).To(Equal(a.ID))
				Expect(all[1].ID).To(Equal(b.ID))
				Expect(all[2].ID).To(Equal(c.ID))
			})
		})

		Describe("AddEdge", func() {
			var a, b *memory.Memory

			BeforeEach(func() {
				a = NewSemantic("a", 1, 0, 0)
				b = NewSemantic("b", 1, 0, 0)
				Expect(driver.SaveMemory(ctx, a)).To(Succeed())
				Expect(driver.SaveMemory(ctx, b)).To(Succeed())
			})

			It("writes one outbound and one inbound entry", func() {
				Expect(driver.AddEdge(ctx, a.ID, b.ID, "x", 0.8)).To(Succeed())

				out, err := driver.GetOutboundEdges(ctx, a.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(out).To(HaveLen(1))
				Expect(out[0].TargetID).To(Equal(b.ID))
				Expect(out[0].RelationType).To(Equal("x"))
				Expect(out[0].Weight).To(Equal(float32(0.8)))

				in, err := driver.GetInboundEdges(ctx, b.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(in).To(HaveLen(1))
				Expect(in[0].SourceID).To(Equal(a.ID))
				Expect(in[0].RelationType).To(Equal("x"))
				Expect(in[0].Weight).To(Equal(float32(0.8)))

				Expect(in[0].CreatedAt).To(Equal(out[0].CreatedAt))
			})

			It("appends duplicates instead of deduplicating", func() {
				Expect(driver.AddEdge(ctx, a.ID, b.ID, "x", 0.8)).To(Succeed())
				Expect(driver.AddEdge(ctx, a.ID, b.ID, "x", 0.8)).To(Succeed())

				out, err := driver.GetOutboundEdges(ctx, a.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(out).To(HaveLen(2))

				in, err := driver.GetInboundEdges(ctx, b.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(in).To(HaveLen(2))
			})

			It("keeps insertion order", func() {
				c := NewSemantic("c", 0, 1, 0)
				Expect(driver.AddEdge(ctx, a.ID, b.ID, "first", 1)).To(Succeed())
				Expect(driver.AddEdge(ctx, a.ID, c.ID, "second", 2)).To(Succeed())

				out, err := driver.GetOutboundEdges(ctx, a.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(out).To(HaveLen(2))
				Expect(out[0].RelationType).To(Equal("first"))
				Expect(out[1].RelationType).To(Equal("second"))
			})

			It("does not clamp weights", func() {
				Expect(driver.AddEdge(ctx, a.ID, b.ID, "strong", 4.5)).To(Succeed())

				out, err := driver.GetOutboundEdges(ctx, a.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(out[0].Weight).To(Equal(float32(4.5)))
			})

			It("does not touch the embedded edge list", func() {
				Expect(driver.AddEdge(ctx, a.ID, b.ID, "x", 1)).To(Succeed())

				got, _, err := driver.GetMemory(ctx, a.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(got.Edges).To(BeEmpty())
			})

			It("is safe under concurrent writers", func() {
				var wg sync.WaitGroup
				for range 10 {
					wg.Add(1)
					go func() {
						defer GinkgoRecover()
						defer wg.Done()
						Expect(driver.AddEdge(ctx, a.ID, b.ID, "x", 1)).To(Succeed())
					}()
				}
				wg.Wait()

				out, err := driver.GetOutboundEdges(ctx, a.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(out).To(HaveLen(10))

				in, err := driver.GetInboundEdges(ctx, b.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(in).To(HaveLen(10))
			})
		})

		Describe("edges for unknown ids", func() {
			It("returns empty lists", func() {
				id := uuid.Must(uuid.NewV7())

				out, err := driver.GetOutboundEdges(ctx, id)
				Expect(err).NotTo(HaveOccurred())
				Expect(out).To(BeEmpty())

				in, err := driver.GetInboundEdges(ctx, id)
				Expect(err).NotTo(HaveOccurred())
				Expect(in).To(BeEmpty())
			})
		})

		Describe("View", func() {
			It("reads through the snapshot", func() {
				a := NewSemantic("a", 1, 0)
				b := NewSemantic("b", 0, 1)
				Expect(driver.SaveMemory(ctx, a)).To(Succeed())
				Expect(driver.SaveMemory(ctx, b)).To(Succeed())
				Expect(driver.AddEdge(ctx, a.ID, b.ID, "x", 1)).To(Succeed())

				err := driver.View(ctx, func(r storage.Reader) error {
					got, ok, err := r.GetMemory(ctx, a.ID)
					Expect(err).NotTo(HaveOccurred())
					Expect(ok).To(BeTrue())
					Expect(got.ID).To(Equal(a.ID))

					all, err := r.ListMemories(ctx)
					Expect(err).NotTo(HaveOccurred())
					Expect(all).To(HaveLen(2))

					out, err := r.GetOutboundEdges(ctx, a.ID)
					Expect(err).NotTo(HaveOccurred())
					Expect(out).To(HaveLen(1))

					in, err := r.GetInboundEdges(ctx, b.ID)
					Expect(err).NotTo(HaveOccurred())
					Expect(in).To(HaveLen(1))
					return nil
				})
				Expect(err).NotTo(HaveOccurred())
			})

			It("returns the callback error", func() {
				sentinel := &storage.Error{Op: "callback"}
				err := driver.View(ctx, func(storage.Reader) error {
					return sentinel
				})
				Expect(err).To(Equal(sentinel))
			})
		})
	})
}
