package browse_test

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ankiforge/ankiforge/internal/api"
	"github.com/ankiforge/ankiforge/internal/browse"
	"github.com/ankiforge/ankiforge/internal/search"
	"github.com/ankiforge/ankiforge/pkg/logger"
	"github.com/ankiforge/ankiforge/pkg/models"
	"github.com/ankiforge/ankiforge/pkg/sessionlog"
)

type listCall struct {
	query  string
	offset int
	limit  int
}

// fakeLister scripts the backend. The optional gate blocks each call
// after it is recorded, so tests can observe in-flight state.
type fakeLister struct {
	mu      sync.Mutex
	calls   []listCall
	respond func(query string, offset, limit int) (api.CardPage, error)
	gate    chan struct{}
}

func (f *fakeLister) Cards(ctx context.Context, query string, offset, limit int) (api.CardPage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, listCall{query: query, offset: offset, limit: limit})
	f.mu.Unlock()

	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return api.CardPage{}, ctx.Err()
		}
	}
	if f.respond != nil {
		return f.respond(query, offset, limit)
	}
	return api.CardPage{}, nil
}

func (f *fakeLister) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeLister) lastCall() listCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return listCall{}
	}
	return f.calls[len(f.calls)-1]
}

func pageOf(total int, ids ...int64) api.CardPage {
	items := make([]models.CardRow, len(ids))
	for i, id := range ids {
		items[i] = models.CardRow{CardID: id, DeckName: "Default", Queue: models.QueueReview}
	}
	return api.CardPage{Items: items, Total: total}
}

type notice struct {
	level   sessionlog.Level
	message string
}

type noticeRecorder struct {
	mu      sync.Mutex
	notices []notice
}

func (r *noticeRecorder) record(level sessionlog.Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, notice{level: level, message: message})
}

func (r *noticeRecorder) all() []notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notice(nil), r.notices...)
}

func newTestController(fake *fakeLister, recorder *noticeRecorder, debounce time.Duration) *browse.Controller {
	cfg := browse.Config{
		Client:   fake,
		Logger:   logger.New(logger.WithOutput(GinkgoWriter), logger.WithPrefix("[browse-test] "), logger.WithFlags(log.LstdFlags)),
		Debounce: debounce,
	}
	if recorder != nil {
		cfg.Notify = recorder.record
	}
	return browse.NewController(cfg)
}

var _ = Describe("Browse controller", func() {
	var (
		ctx      context.Context
		fake     *fakeLister
		recorder *noticeRecorder
		ctrl     *browse.Controller
	)

	BeforeEach(func() {
		ctx = context.Background()
		fake = &fakeLister{}
		recorder = &noticeRecorder{}
	})

	AfterEach(func() {
		if ctrl != nil {
			ctrl.Close()
		}
	})

	Context("fetching", func() {
		It("should populate items and total on success", func() {
			fake.respond = func(string, int, int) (api.CardPage, error) {
				return pageOf(40, 101, 102), nil
			}
			ctrl = newTestController(fake, recorder, time.Hour)

			Expect(ctrl.FetchNow(ctx)).To(Succeed())
			Expect(ctrl.Items()).To(HaveLen(2))
			Expect(ctrl.Total()).To(Equal(40))

			entries := ctrl.Journal().Entries()
			Expect(entries).NotTo(BeEmpty())
			Expect(entries[len(entries)-1].Message).To(ContainSubstring("loaded 2 of 40"))
		})

		It("should fetch the same state twice for unchanged filters", func() {
			fake.respond = func(string, int, int) (api.CardPage, error) {
				return pageOf(2, 7, 8), nil
			}
			ctrl = newTestController(fake, recorder, time.Hour)

			Expect(ctrl.FetchNow(ctx)).To(Succeed())
			first := ctrl.Items()
			Expect(ctrl.FetchNow(ctx)).To(Succeed())

			Expect(fake.callCount()).To(Equal(2))
			Expect(ctrl.Items()).To(Equal(first))
			Expect(ctrl.Total()).To(Equal(2))
		})

		It("should use the default query when no filters are set", func() {
			ctrl = newTestController(fake, recorder, time.Hour)
			Expect(ctrl.FetchNow(ctx)).To(Succeed())
			Expect(fake.lastCall().query).To(Equal(search.DefaultQuery))
		})

		It("should reset the loading flag while a fetch is in flight and after", func() {
			fake.gate = make(chan struct{})
			fake.respond = func(string, int, int) (api.CardPage, error) {
				return pageOf(1, 1), nil
			}
			ctrl = newTestController(fake, recorder, time.Hour)

			done := make(chan error, 1)
			go func() { done <- ctrl.FetchNow(ctx) }()

			Eventually(fake.callCount).Should(Equal(1))
			Expect(ctrl.Loading()).To(BeTrue())

			close(fake.gate)
			Eventually(done).Should(Receive(Succeed()))
			Expect(ctrl.Loading()).To(BeFalse())
		})

		It("should reset the loading flag when the fetch fails", func() {
			fake.respond = func(string, int, int) (api.CardPage, error) {
				return api.CardPage{}, errors.New("connection refused")
			}
			ctrl = newTestController(fake, recorder, time.Hour)

			Expect(ctrl.FetchNow(ctx)).NotTo(Succeed())
			Expect(ctrl.Loading()).To(BeFalse())
		})
	})

	Context("failure handling", func() {
		BeforeEach(func() {
			ctrl = newTestController(fake, recorder, time.Hour)
		})

		seedRows := func() {
			fake.respond = func(string, int, int) (api.CardPage, error) {
				return pageOf(3, 1, 2, 3), nil
			}
			Expect(ctrl.FetchNow(ctx)).To(Succeed())
			ctrl.Select(1, 2)
			Expect(ctrl.Selected()).To(HaveLen(2))
		}

		It("should empty the table and log on a protocol mismatch", func() {
			seedRows()
			fake.respond = func(string, int, int) (api.CardPage, error) {
				return api.CardPage{}, &api.NonJSONError{ContentType: "text/html", Head: "<!doctype html> 502"}
			}

			Expect(ctrl.FetchNow(ctx)).NotTo(Succeed())
			Expect(ctrl.Items()).To(BeEmpty())
			Expect(ctrl.Total()).To(BeZero())
			Expect(ctrl.Selected()).To(BeEmpty())

			entries := ctrl.Journal().Entries()
			last := entries[len(entries)-1]
			Expect(last.Level).To(Equal(sessionlog.LevelError))
			Expect(last.Message).To(ContainSubstring("non-JSON"))
			Expect(last.Message).To(ContainSubstring("text/html"))

			notices := recorder.all()
			Expect(notices).NotTo(BeEmpty())
			Expect(notices[len(notices)-1].level).To(Equal(sessionlog.LevelError))
		})

		It("should empty the table and log on a decode failure", func() {
			seedRows()
			fake.respond = func(string, int, int) (api.CardPage, error) {
				return api.CardPage{}, &api.BodyError{Message: "unexpected end of JSON input"}
			}

			Expect(ctrl.FetchNow(ctx)).NotTo(Succeed())
			Expect(ctrl.Items()).To(BeEmpty())

			entries := ctrl.Journal().Entries()
			Expect(entries[len(entries)-1].Message).To(ContainSubstring("could not be decoded"))
		})

		It("should warn on a domain failure", func() {
			seedRows()
			fake.respond = func(string, int, int) (api.CardPage, error) {
				return api.CardPage{}, &api.APIError{Status: 500, Message: "anki unavailable"}
			}

			Expect(ctrl.FetchNow(ctx)).NotTo(Succeed())
			Expect(ctrl.Items()).To(BeEmpty())

			entries := ctrl.Journal().Entries()
			last := entries[len(entries)-1]
			Expect(last.Level).To(Equal(sessionlog.LevelWarn))
			Expect(last.Message).To(ContainSubstring("anki unavailable"))

			notices := recorder.all()
			Expect(notices[len(notices)-1].level).To(Equal(sessionlog.LevelWarn))
		})

		It("should report transport errors distinctly", func() {
			seedRows()
			fake.respond = func(string, int, int) (api.CardPage, error) {
				return api.CardPage{}, errors.New("dial tcp: connection refused")
			}

			Expect(ctrl.FetchNow(ctx)).NotTo(Succeed())

			entries := ctrl.Journal().Entries()
			Expect(entries[len(entries)-1].Message).To(ContainSubstring("did not reach the backend"))
		})
	})

	Context("debounced filter edits", func() {
		It("should coalesce a burst of edits into one fetch with the final filters", func() {
			fake.respond = func(string, int, int) (api.CardPage, error) {
				return pageOf(0), nil
			}
			ctrl = newTestController(fake, recorder, 30*time.Millisecond)

			ctrl.SetDeck("Spanish")
			ctrl.SetStatus(search.StatusNew)
			ctrl.SetFreeText("verb")

			Eventually(fake.callCount).WithTimeout(time.Second).Should(Equal(1))
			Consistently(fake.callCount).WithTimeout(150 * time.Millisecond).Should(Equal(1))

			Expect(fake.lastCall().query).To(Equal(`deck:"Spanish" is:new verb`))
			Expect(fake.lastCall().offset).To(BeZero())
		})

		It("should restart the quiet window on each edit", func() {
			fake.respond = func(string, int, int) (api.CardPage, error) {
				return pageOf(0), nil
			}
			ctrl = newTestController(fake, recorder, 60*time.Millisecond)

			ctrl.SetFreeText("a")
			time.Sleep(30 * time.Millisecond)
			ctrl.SetFreeText("ab")
			time.Sleep(30 * time.Millisecond)
			ctrl.SetFreeText("abc")

			Eventually(fake.callCount).WithTimeout(time.Second).Should(Equal(1))
			Consistently(fake.callCount).WithTimeout(200 * time.Millisecond).Should(Equal(1))
			Expect(fake.lastCall().query).To(Equal("abc"))
		})

		It("should reset the offset when a filter changes", func() {
			fake.respond = func(string, int, int) (api.CardPage, error) {
				return pageOf(100, 1), nil
			}
			ctrl = newTestController(fake, recorder, 20*time.Millisecond)

			Expect(ctrl.Paginate(ctx, 50, 25)).To(Succeed())
			Expect(fake.lastCall().offset).To(Equal(50))

			ctrl.SetDeck("Math")
			Eventually(fake.callCount).WithTimeout(time.Second).Should(Equal(2))
			Expect(fake.lastCall().offset).To(BeZero())
			Expect(fake.lastCall().limit).To(Equal(25))
		})

		It("should not fire after Close", func() {
			ctrl = newTestController(fake, recorder, 20*time.Millisecond)

			ctrl.SetDeck("Spanish")
			ctrl.Close()

			Consistently(fake.callCount).WithTimeout(150 * time.Millisecond).Should(BeZero())
		})
	})

	Context("pagination", func() {
		It("should fetch immediately, bypassing the debounce", func() {
			fake.respond = func(string, int, int) (api.CardPage, error) {
				return pageOf(100, 1), nil
			}
			ctrl = newTestController(fake, recorder, time.Hour)

			Expect(ctrl.Paginate(ctx, 25, 25)).To(Succeed())
			Expect(fake.callCount()).To(Equal(1))
			Expect(fake.lastCall().offset).To(Equal(25))
			Expect(ctrl.Offset()).To(Equal(25))
		})

		It("should keep the page size across filter changes", func() {
			fake.respond = func(string, int, int) (api.CardPage, error) {
				return pageOf(100, 1), nil
			}
			ctrl = newTestController(fake, recorder, 20*time.Millisecond)

			Expect(ctrl.Paginate(ctx, 0, 50)).To(Succeed())
			ctrl.SetStatus(search.StatusDue)

			Eventually(fake.callCount).WithTimeout(time.Second).Should(Equal(2))
			Expect(fake.lastCall().limit).To(Equal(50))
		})
	})

	Context("selection", func() {
		BeforeEach(func() {
			fake.respond = func(string, int, int) (api.CardPage, error) {
				return pageOf(3, 10, 20, 30), nil
			}
			ctrl = newTestController(fake, recorder, time.Hour)
			Expect(ctrl.FetchNow(ctx)).To(Succeed())
		})

		It("should only select rows that are displayed", func() {
			ctrl.Select(10, 999)
			Expect(ctrl.Selected()).To(Equal([]int64{10}))
		})

		It("should select and deselect visible rows", func() {
			ctrl.SelectAllVisible()
			Expect(ctrl.Selected()).To(Equal([]int64{10, 20, 30}))

			ctrl.Deselect(20)
			Expect(ctrl.Selected()).To(Equal([]int64{10, 30}))

			ctrl.ClearSelection()
			Expect(ctrl.Selected()).To(BeEmpty())
		})

		It("should clear the selection when rows are replaced", func() {
			ctrl.Select(10, 20)
			Expect(ctrl.FetchNow(ctx)).To(Succeed())
			Expect(ctrl.Selected()).To(BeEmpty())
		})
	})
})
