package controller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JAlbrecht-svg/inkasso-console/internal/backendtest"
	"github.com/JAlbrecht-svg/inkasso-console/internal/model"
	"github.com/JAlbrecht-svg/inkasso-console/internal/repository"
	"github.com/JAlbrecht-svg/inkasso-console/internal/transport"
)

type item struct {
	id   string
	name string
}

func (i item) Identity() string { return i.id }

func TestCollectionLoadReplacesItems(t *testing.T) {
	batches := [][]item{{{"1", "a"}, {"2", "b"}}, {{"3", "c"}}}
	n := 0
	c := NewCollection[item]("items", func(ctx context.Context) ([]item, error) {
		out := batches[n]
		n++
		return out, nil
	}, nil)

	assert.Equal(t, Idle, c.State())
	require.NoError(t, c.Load(context.Background()))
	assert.Equal(t, Loaded, c.State())
	assert.Len(t, c.Items(), 2)

	require.NoError(t, c.Load(context.Background()))
	assert.Equal(t, []item{{"3", "c"}}, c.Items())
}

func TestCollectionFailureKeepsPreviousItems(t *testing.T) {
	fail := false
	c := NewCollection[item]("items", func(ctx context.Context) ([]item, error) {
		if fail {
			return nil, &transport.StatusError{StatusCode: 500, Message: "database down"}
		}
		return []item{{"1", "a"}}, nil
	}, nil)

	require.NoError(t, c.Load(context.Background()))
	fail = true
	err := c.Load(context.Background())
	require.Error(t, err)

	assert.Equal(t, Failed, c.State())
	assert.Equal(t, "database down", c.ErrorMessage())
	assert.Equal(t, []item{{"1", "a"}}, c.Items())

	fail = false
	require.NoError(t, c.Load(context.Background()))
	assert.Empty(t, c.ErrorMessage())
	assert.NoError(t, c.Err())
}

func TestCollectionSecondLoadWhileLoadingIsDropped(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	c := NewCollection[item]("items", func(ctx context.Context) ([]item, error) {
		calls.Add(1)
		<-release
		return []item{{"1", "a"}}, nil
	}, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = c.Load(context.Background())
	}()
	require.Eventually(t, func() bool { return c.State() == Loading }, time.Second, 5*time.Millisecond)

	assert.NoError(t, c.Load(context.Background()))
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, Loaded, c.State())
}

func TestCollectionRefreshEntry(t *testing.T) {
	c := NewCollection[item]("items", func(ctx context.Context) ([]item, error) {
		return []item{{"1", "a"}, {"2", "b"}}, nil
	}, nil)
	require.NoError(t, c.Load(context.Background()))

	var notified atomic.Int32
	cancel := c.Subscribe(func() { notified.Add(1) })

	assert.True(t, c.RefreshEntry(item{"2", "B"}))
	assert.False(t, c.RefreshEntry(item{"9", "x"}))
	assert.Equal(t, []item{{"1", "a"}, {"2", "B"}}, c.Items())
	assert.Equal(t, int32(1), notified.Load())

	cancel()
	c.RefreshEntry(item{"1", "A"})
	assert.Equal(t, int32(1), notified.Load())

	found, ok := c.Find("1")
	require.True(t, ok)
	assert.Equal(t, "A", found.name)
}

func TestCollectionRefreshEntryDoesNotRefilter(t *testing.T) {
	srv := backendtest.NewServer(t)
	list := NewCaseList(srv.Repository(), 0, nil)
	require.NoError(t, list.SetStatusFilter(context.Background(), model.StatusOpen))
	require.Equal(t, 1, list.Len())

	c, ok := list.Find(backendtest.CaseC1)
	require.True(t, ok)
	c.Status = model.StatusPaid
	require.True(t, list.RefreshEntry(c))

	got, ok := list.Find(backendtest.CaseC1)
	require.True(t, ok, "entry that no longer matches the filter stays until the next load")
	assert.Equal(t, model.StatusPaid, got.Status)
}

func TestCatalogLists(t *testing.T) {
	srv := backendtest.NewServer(t)
	repo := srv.Repository()
	ctx := context.Background()

	mandanten := NewMandantList(repo, nil)
	require.NoError(t, mandanten.Load(ctx))
	assert.Equal(t, 2, mandanten.Len())

	orders := NewAuftragList(repo, nil)
	require.NoError(t, orders.Load(ctx))
	assert.Equal(t, 2, orders.Len())
	require.NoError(t, orders.SetMandant(ctx, backendtest.MandantM2))
	assert.Equal(t, []string{backendtest.AuftragA2}, ids(orders.Items()))

	flows := NewWorkflowList(repo, nil)
	require.NoError(t, flows.Load(ctx))
	assert.Equal(t, 1, flows.Len())

	steps := NewStepList(repo, nil)
	require.NoError(t, steps.SetWorkflow(ctx, backendtest.FlowW1))
	assert.Equal(t, 1, steps.Len())

	err := steps.SetWorkflow(ctx, "")
	assert.Equal(t, transport.KindValidation, transport.KindOf(err))
	assert.Equal(t, Failed, steps.State())
}

func ids[T Identifiable](items []T) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Identity()
	}
	return out
}

type recorded struct {
	mu      sync.Mutex
	changes []model.Change
	err     error
}

func (r *recorded) Record(ctx context.Context, c model.Change) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
	return r.err
}

func (r *recorded) kinds() []model.ChangeKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.ChangeKind, len(r.changes))
	for i, c := range r.changes {
		out[i] = c.Kind
	}
	return out
}

func TestRecordersFanOut(t *testing.T) {
	a := &recorded{err: errors.New("redis down")}
	b := &recorded{}
	err := Recorders{a, nil, b}.Record(context.Background(), model.Change{Kind: model.ChangeCaseUpdated})
	assert.EqualError(t, err, "redis down")
	assert.Len(t, b.kinds(), 1)
}

var _ EntryRefresher[model.Case] = (*CaseList)(nil)
var _ EntryRefresher[model.Debtor] = (*DebtorList)(nil)
var _ CaseSource = (*repository.Repository)(nil)
var _ CaseStore = (*repository.Repository)(nil)
var _ DebtorStore = (*repository.Repository)(nil)
var _ CatalogSource = (*repository.Repository)(nil)
