// Package dashboard owns the state of one catalog dashboard: search text and its
// debounced commit, the current page, the loaded page result, the add/edit
// dialog, and the in-flight flags. Every transition runs under a single lock;
// network calls and the debounce timer run outside it and re-enter through
// guarded completions.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/yourorg/catalogdash/internal/apperrors"
	"github.com/yourorg/catalogdash/internal/form"
	"github.com/yourorg/catalogdash/internal/models"
)

const (
	DefaultPageSize     = 10
	DefaultDebounce     = 300 * time.Millisecond
	DefaultFetchTimeout = 15 * time.Second
)

var ErrDialogClosed = errors.New("dialog is not open")

type Catalog interface {
	FetchPage(ctx context.Context, page, pageSize int, search string) (*models.PageResult, error)
}

type Mutator interface {
	Create(ctx context.Context, input models.ProductInput) (*models.MutationResult, error)
	Update(ctx context.Context, id models.ProductID, input models.ProductInput) (*models.MutationResult, error)
	Remove(ctx context.Context, id models.ProductID) (*models.MutationResult, error)
}

// Alerter shows a blocking notice to the dashboard's user.
type Alerter interface {
	Alert(ctx context.Context, message string) error
}

type Options struct {
	PageSize     int
	Debounce     time.Duration
	FetchTimeout time.Duration
	Logger       *slog.Logger
}

func (o *Options) normalize() {
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = DefaultFetchTimeout
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// fetchToken identifies the request a completion belongs to. Only the most
// recently issued token may write its result.
type fetchToken struct {
	seq    uint64
	page   int
	search string
}

type Dashboard struct {
	catalog   Catalog
	mutations Mutator
	alerter   Alerter
	opts      Options

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	state    State
	timer    *time.Timer
	timerGen uint64
	fetchSeq uint64
	// Last applied sequence numbers of client inputs that may arrive out of order.
	searchSeq uint64
	fieldSeq  map[string]uint64
	subs      map[uint64]chan struct{}
	nextSub  uint64
	closed   bool
}

func New(catalog Catalog, mutations Mutator, alerter Alerter, opts Options) *Dashboard {
	opts.normalize()
	ctx, cancel := context.WithCancel(context.Background())
	return &Dashboard{
		catalog:   catalog,
		mutations: mutations,
		alerter:   alerter,
		opts:      opts,
		ctx:       ctx,
		cancel:    cancel,
		state:     initialState(),
		fieldSeq:  make(map[string]uint64),
		subs:      make(map[uint64]chan struct{}),
	}
}

func initialState() State {
	return State{CurrentPage: 1}
}

// PageSize is the number of products requested per page.
func (d *Dashboard) PageSize() int {
	return d.opts.PageSize
}

// Start issues the first fetch for page 1 with no search.
func (d *Dashboard) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.fetchLocked()
}

// Close stops the debounce timer, abandons outstanding fetches and closes every
// subscription.
func (d *Dashboard) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	d.stopTimerLocked()
	d.cancel()
	for id, ch := range d.subs {
		close(ch)
		delete(d.subs, id)
	}
}

// Snapshot returns a copy of the current state.
func (d *Dashboard) Snapshot() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.clone()
}

// Subscribe returns a channel that receives a signal after state changes.
// Signals coalesce: a slow reader sees one pending signal, never a backlog.
func (d *Dashboard) Subscribe() (<-chan struct{}, func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ch := make(chan struct{}, 1)
	if d.closed {
		close(ch)
		return ch, func() {}
	}
	id := d.nextSub
	d.nextSub++
	d.subs[id] = ch
	return ch, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if sub, ok := d.subs[id]; ok {
			close(sub)
			delete(d.subs, id)
		}
	}
}

// SetSearch records raw search text and restarts the debounce window. Only the
// value standing when the window closes is committed.
func (d *Dashboard) SetSearch(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.setSearchLocked(text)
}

// SetSearchSeq is SetSearch for inputs that can arrive out of order. A value
// whose seq is not newer than the last applied one is dropped and false is
// returned.
func (d *Dashboard) SetSearchSeq(seq uint64, text string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || seq <= d.searchSeq {
		return false
	}
	d.searchSeq = seq
	d.setSearchLocked(text)
	return true
}

func (d *Dashboard) setSearchLocked(text string) {
	d.state.SearchText = text
	d.stopTimerLocked()
	gen := d.timerGen
	d.timer = time.AfterFunc(d.opts.Debounce, func() { d.commitSearch(gen) })
	d.changedLocked()
}

func (d *Dashboard) commitSearch(gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	// A newer keystroke or a reload replaced this timer after it had already fired.
	if d.closed || gen != d.timerGen {
		return
	}
	d.timer = nil
	changed := d.state.CommittedSearch != d.state.SearchText || d.state.CurrentPage != 1
	d.state.CommittedSearch = d.state.SearchText
	d.state.CurrentPage = 1
	if changed {
		d.fetchLocked()
	}
}

// stopTimerLocked cancels the pending debounce and invalidates its callback in
// case it is already running.
func (d *Dashboard) stopTimerLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.timerGen++
}

// SetPage moves to page n, clamped to the pages known to exist.
func (d *Dashboard) SetPage(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if n < 1 {
		n = 1
	}
	// Until a page has loaded there is no known upper bound.
	if d.state.Page != nil {
		if last := d.state.TotalPages(); n > last {
			n = last
		}
	}
	if n == d.state.CurrentPage {
		return
	}
	d.state.CurrentPage = n
	d.fetchLocked()
}

func (d *Dashboard) fetchLocked() {
	d.fetchSeq++
	token := fetchToken{seq: d.fetchSeq, page: d.state.CurrentPage, search: d.state.CommittedSearch}
	d.state.Loading = true
	d.state.Err = nil
	d.changedLocked()
	go d.runFetch(token)
}

func (d *Dashboard) runFetch(token fetchToken) {
	ctx, cancel := context.WithTimeout(d.ctx, d.opts.FetchTimeout)
	defer cancel()

	result, err := d.catalog.FetchPage(ctx, token.page, d.opts.PageSize, token.search)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if token.seq != d.fetchSeq {
		d.opts.Logger.Debug("discarding stale page result",
			"page", token.page, "search", token.search, "seq", token.seq, "current_seq", d.fetchSeq)
		return
	}
	d.state.Loading = false
	if err != nil {
		d.opts.Logger.Warn("failed to load products", "page", token.page, "search", token.search, "error", err)
		d.state.Err = err
	} else {
		d.state.Page = result
	}
	d.changedLocked()
}

// Reload drops all state and fetches page 1 again, the same as reopening the
// dashboard.
func (d *Dashboard) Reload() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.stopTimerLocked()
	d.state = initialState()
	d.fetchLocked()
}

// OpenCreate opens the dialog with an empty draft.
func (d *Dashboard) OpenCreate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || d.state.ActionInFlight {
		return
	}
	d.state.Dialog = Dialog{Open: true, Form: form.New()}
	d.changedLocked()
}

// OpenEdit opens the dialog pre-filled from a product on the current page.
func (d *Dashboard) OpenEdit(id models.ProductID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || d.state.ActionInFlight {
		return nil
	}
	product, ok := d.state.product(id)
	if !ok {
		return apperrors.NewNotFoundError("product", string(id))
	}
	d.state.Dialog = Dialog{Open: true, Target: &product, Form: form.Edit(product)}
	d.changedLocked()
	return nil
}

// CloseDialog closes the dialog unless a save is in flight.
func (d *Dashboard) CloseDialog() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || d.state.ActionInFlight || !d.state.Dialog.Open {
		return
	}
	d.state.Dialog = Dialog{}
	d.changedLocked()
}

// EditField applies one field edit to the open draft.
func (d *Dashboard) EditField(field, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.editFieldLocked(field, value)
}

// EditFieldSeq is EditField for inputs that can arrive out of order. Sequence
// numbers are tracked per field; a stale edit is dropped without error.
func (d *Dashboard) EditFieldSeq(seq uint64, field, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.closed && seq <= d.fieldSeq[field] {
		return nil
	}
	if err := d.editFieldLocked(field, value); err != nil {
		return err
	}
	d.fieldSeq[field] = seq
	return nil
}

func (d *Dashboard) editFieldLocked(field, value string) error {
	if d.closed || !d.state.Dialog.Open {
		return ErrDialogClosed
	}
	if err := d.state.Dialog.Form.Set(field, value); err != nil {
		return apperrors.NewValidationError(field, err.Error())
	}
	d.changedLocked()
	return nil
}

// Submit validates the draft and, when it is valid, creates or updates the
// product. Validation failures stay in the form and make no network call. A
// failed save raises an alert and leaves the dialog open for a retry.
func (d *Dashboard) Submit(ctx context.Context) error {
	d.mu.Lock()
	if d.closed || !d.state.Dialog.Open {
		d.mu.Unlock()
		return ErrDialogClosed
	}
	if d.state.ActionInFlight {
		d.mu.Unlock()
		return nil
	}
	input, ok := d.state.Dialog.Form.Submit()
	if !ok {
		d.changedLocked()
		d.mu.Unlock()
		return nil
	}
	target := d.state.Dialog.Target
	submitted := d.state.Dialog.Form
	d.state.ActionInFlight = true
	d.changedLocked()
	d.mu.Unlock()

	var err error
	if target != nil {
		_, err = d.mutations.Update(ctx, target.ID, input)
	} else {
		_, err = d.mutations.Create(ctx, input)
	}

	d.mu.Lock()
	d.state.ActionInFlight = false
	// A reload during the save may already have replaced the dialog.
	if err == nil && d.state.Dialog.Form == submitted {
		d.state.Dialog = Dialog{}
	}
	d.changedLocked()
	d.mu.Unlock()

	if err != nil {
		d.alert(ctx, "Failed to save product: "+err.Error())
		return err
	}
	return nil
}

// Delete removes a product straight from the list. A declined confirmation is
// not an error.
func (d *Dashboard) Delete(ctx context.Context, id models.ProductID) error {
	_, err := d.mutations.Remove(ctx, id)
	if err == nil || apperrors.IsCancelled(err) {
		return nil
	}
	d.alert(ctx, "Failed to delete product: "+err.Error())
	return err
}

func (d *Dashboard) alert(ctx context.Context, message string) {
	if err := d.alerter.Alert(ctx, message); err != nil {
		d.opts.Logger.Warn("alert not delivered", "message", message, "error", err)
	}
}

func (d *Dashboard) changedLocked() {
	d.state.Version++
	for _, ch := range d.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
