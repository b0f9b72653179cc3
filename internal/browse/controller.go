// Package browse owns the card-browser state: active filters, the current
// page of rows, the selection, and the debounce discipline that keeps
// filter edits from stampeding the backend.
package browse

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ankiforge/ankiforge/internal/api"
	"github.com/ankiforge/ankiforge/internal/search"
	"github.com/ankiforge/ankiforge/pkg/logger"
	"github.com/ankiforge/ankiforge/pkg/models"
	"github.com/ankiforge/ankiforge/pkg/sessionlog"
)

const (
	DefaultPageSize = 25

	// DefaultDebounce is the quiet period after the last filter edit
	// before a fetch fires.
	DefaultDebounce = 450 * time.Millisecond
)

// CardLister is the slice of the backend client the controller needs.
type CardLister interface {
	Cards(ctx context.Context, query string, offset, limit int) (api.CardPage, error)
}

type Config struct {
	Client   CardLister
	Journal  *sessionlog.Log
	Logger   *logger.Logger
	Notify   sessionlog.Notifier
	PageSize int
	Debounce time.Duration

	// Filters seeds the initial filter state without scheduling a fetch.
	Filters search.Filters
}

// Controller coordinates filter edits, fetches and selection for one
// browse session. All methods are safe for concurrent use.
//
// Fetches are not serialized against each other: if two overlap, the one
// finishing last wins. Filter edits funnel through the debounce window,
// so overlap only happens when pagination races a scheduled fetch.
type Controller struct {
	client  CardLister
	journal *sessionlog.Log
	logger  *logger.Logger
	notify  sessionlog.Notifier
	sched   *scheduler

	mu        sync.Mutex
	filters   search.Filters
	offset    int
	limit     int
	items     []models.CardRow
	total     int
	loading   bool
	selection map[int64]struct{}
}

func NewController(cfg Config) *Controller {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Journal == nil {
		cfg.Journal = sessionlog.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.New()
	}

	c := &Controller{
		client:    cfg.Client,
		journal:   cfg.Journal,
		logger:    cfg.Logger,
		notify:    cfg.Notify,
		filters:   cfg.Filters,
		limit:     cfg.PageSize,
		selection: make(map[int64]struct{}),
	}
	c.sched = newScheduler(cfg.Debounce, func() {
		_ = c.FetchNow(context.Background())
	})
	return c
}

// Close cancels any pending debounced fetch. An in-flight request is
// bounded by the client's own timeout.
func (c *Controller) Close() {
	c.sched.Stop()
}

// Journal exposes the session log backing this controller.
func (c *Controller) Journal() *sessionlog.Log {
	return c.journal
}

// SetDeck, SetStatus, SetFreeText and SetAdvanced edit one filter each.
// Every edit resets the page offset and (re)schedules a debounced fetch,
// so a burst of edits costs one request.

func (c *Controller) SetDeck(deck string) {
	c.editFilters(func(f *search.Filters) { f.Deck = deck })
}

func (c *Controller) SetStatus(status string) {
	c.editFilters(func(f *search.Filters) { f.Status = status })
}

func (c *Controller) SetFreeText(text string) {
	c.editFilters(func(f *search.Filters) { f.FreeText = text })
}

func (c *Controller) SetAdvanced(query string) {
	c.editFilters(func(f *search.Filters) { f.Advanced = query })
}

// SetFilters replaces all four filters at once.
func (c *Controller) SetFilters(f search.Filters) {
	c.editFilters(func(dst *search.Filters) { *dst = f })
}

func (c *Controller) editFilters(mutate func(*search.Filters)) {
	c.mu.Lock()
	mutate(&c.filters)
	c.offset = 0
	c.mu.Unlock()
	c.ScheduleFetch()
}

// ScheduleFetch arms (or re-arms) the debounced fetch. Only the newest
// request within the window fires.
func (c *Controller) ScheduleFetch() {
	c.sched.Schedule()
}

// Paginate moves to a new page and fetches immediately, bypassing the
// debounce. The filters are left untouched.
func (c *Controller) Paginate(ctx context.Context, offset, limit int) error {
	c.mu.Lock()
	if offset >= 0 {
		c.offset = offset
	}
	if limit > 0 {
		c.limit = limit
	}
	c.mu.Unlock()
	return c.FetchNow(ctx)
}

// FetchNow fetches the current page for the current filters. Failures
// never leave stale rows behind: the table empties, the session log gets
// an entry and the notifier fires. The returned error reports what
// happened for callers that want an exit code; state is already settled
// either way.
func (c *Controller) FetchNow(ctx context.Context) error {
	c.mu.Lock()
	query := c.filters.Build()
	offset, limit := c.offset, c.limit
	c.loading = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
	}()

	page, err := c.client.Cards(ctx, query, offset, limit)
	if err != nil {
		c.applyEmpty()
		c.reportFetchError(query, err)
		return err
	}

	c.mu.Lock()
	c.items = page.Items
	c.total = page.Total
	c.selection = make(map[int64]struct{})
	c.mu.Unlock()

	c.logger.Debug("fetched %d cards (total %d) for query %q", len(page.Items), page.Total, query)
	c.journal.Info("loaded %d of %d cards for query %q", len(page.Items), page.Total, query)
	return nil
}

func (c *Controller) applyEmpty() {
	c.mu.Lock()
	c.items = nil
	c.total = 0
	c.selection = make(map[int64]struct{})
	c.mu.Unlock()
}

func (c *Controller) reportFetchError(query string, err error) {
	var nonJSON *api.NonJSONError
	var bodyErr *api.BodyError
	var apiErr *api.APIError
	switch {
	case errors.As(err, &nonJSON):
		c.journal.Error("card fetch returned a non-JSON body (content-type %s): %s", nonJSON.ContentType, nonJSON.Head)
		c.notifyf(sessionlog.LevelError, "Backend answered with a non-JSON response; check the server or proxy.")
	case errors.As(err, &bodyErr):
		c.journal.Error("card fetch body could not be decoded: %s", bodyErr.Message)
		c.notifyf(sessionlog.LevelError, "Backend response could not be decoded.")
	case errors.As(err, &apiErr):
		c.journal.Warn("card fetch failed for query %q: %v", query, apiErr)
		c.notifyf(sessionlog.LevelWarn, "Card fetch failed: "+apiErr.Message)
	default:
		c.journal.Error("card fetch did not reach the backend: %v", err)
		c.notifyf(sessionlog.LevelError, "Could not reach the backend.")
	}
	c.logger.Warn("card fetch failed (query %q): %v", query, err)
}

func (c *Controller) notifyf(level sessionlog.Level, message string) {
	if c.notify != nil {
		c.notify(level, message)
	}
}

// Items returns a copy of the current page rows.
func (c *Controller) Items() []models.CardRow {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.CardRow, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Controller) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

func (c *Controller) Offset() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offset
}

func (c *Controller) Limit() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.limit
}

func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

func (c *Controller) Filters() search.Filters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters
}

// Query is the effective search string the next fetch would use.
func (c *Controller) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters.Build()
}

// Select marks card ids as selected. Ids not on the current page are
// ignored, which keeps the selection a subset of what is displayed.
func (c *Controller) Select(ids ...int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	visible := make(map[int64]struct{}, len(c.items))
	for _, row := range c.items {
		visible[row.CardID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := visible[id]; ok {
			c.selection[id] = struct{}{}
		}
	}
}

// SelectAllVisible selects every row on the current page.
func (c *Controller) SelectAllVisible() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, row := range c.items {
		c.selection[row.CardID] = struct{}{}
	}
}

func (c *Controller) Deselect(ids ...int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.selection, id)
	}
}

func (c *Controller) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection = make(map[int64]struct{})
}

// Selected returns the selected card ids in ascending order.
func (c *Controller) Selected() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]int64, 0, len(c.selection))
	for id := range c.selection {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
