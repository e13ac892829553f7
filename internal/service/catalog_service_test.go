package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"storefront/internal/models"
)

func newTestCatalog(mode string) (*CatalogService, *memProducts, *recorderStub) {
	products := newMemProducts()
	rec := &recorderStub{}
	return NewCatalogService(products, &passTx{}, rec, mode), products, rec
}

func names(list []models.Product) []string {
	out := make([]string, 0, len(list))
	for _, p := range list {
		out = append(out, p.Name)
	}
	return out
}

func TestCatalogService_AddProduct(t *testing.T) {
	svc, _, rec := newTestCatalog(OwnershipShared)
	ctx := context.Background()

	p, err := svc.AddProduct(ctx, 1, ProductParams{Name: " Widget ", Price: 9.99})
	if err != nil {
		t.Fatalf("AddProduct: %v", err)
	}
	if p.ID == 0 || p.Name != "Widget" || !p.Available || p.OwnerID != nil {
		t.Fatalf("unexpected product %+v", p)
	}
	if got := rec.types(); len(got) != 1 || got[0] != models.EventProductAdd {
		t.Fatalf("want PRODUCT_ADD, got %v", got)
	}
}

func TestCatalogService_AddProduct_Invalid(t *testing.T) {
	svc, products, _ := newTestCatalog(OwnershipShared)

	for name, in := range map[string]ProductParams{
		"empty name":     {Name: "  ", Price: 1},
		"negative price": {Name: "x", Price: -0.01},
		"nan price":      {Name: "x", Price: math.NaN()},
		"inf price":      {Name: "x", Price: math.Inf(1)},
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.AddProduct(context.Background(), 1, in); !errors.Is(err, ErrInvalidProduct) {
				t.Fatalf("want ErrInvalidProduct, got %v", err)
			}
		})
	}
	if len(products.byID) != 0 {
		t.Fatalf("no product should be stored")
	}
}

func TestCatalogService_BuyReturn_Shared(t *testing.T) {
	svc, _, rec := newTestCatalog(OwnershipShared)
	ctx := context.Background()
	p, _ := svc.AddProduct(ctx, 1, ProductParams{Name: "Widget", Price: 1})

	bought, err := svc.Buy(ctx, 2, p.ID)
	if err != nil {
		t.Fatalf("Buy: %v", err)
	}
	if bought.Available || bought.OwnerID == nil || *bought.OwnerID != 2 {
		t.Fatalf("unexpected after buy: %+v", bought)
	}
	// idempotent, and anyone may buy in shared mode
	if _, err := svc.Buy(ctx, 3, p.ID); err != nil {
		t.Fatalf("second Buy: %v", err)
	}
	// anyone may return in shared mode
	returned, err := svc.Return(ctx, 4, p.ID)
	if err != nil {
		t.Fatalf("Return: %v", err)
	}
	if !returned.Available || returned.OwnerID != nil {
		t.Fatalf("unexpected after return: %+v", returned)
	}
	if _, err := svc.Return(ctx, 4, p.ID); err != nil {
		t.Fatalf("second Return: %v", err)
	}

	want := []string{models.EventProductAdd, models.EventBuy, models.EventBuy, models.EventReturn, models.EventReturn}
	got := rec.types()
	if len(got) != len(want) {
		t.Fatalf("events: want %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events: want %v, got %v", want, got)
		}
	}
}

func TestCatalogService_NotFound(t *testing.T) {
	svc, _, rec := newTestCatalog(OwnershipShared)
	ctx := context.Background()

	if _, err := svc.Buy(ctx, 1, 999); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("Buy: want ErrProductNotFound, got %v", err)
	}
	if _, err := svc.Return(ctx, 1, 999); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("Return: want ErrProductNotFound, got %v", err)
	}
	if len(rec.events) != 0 {
		t.Fatalf("no events expected, got %v", rec.types())
	}
}

func TestCatalogService_PerUser(t *testing.T) {
	svc, _, _ := newTestCatalog(OwnershipPerUser)
	ctx := context.Background()
	a, _ := svc.AddProduct(ctx, 1, ProductParams{Name: "A", Price: 1})
	b, _ := svc.AddProduct(ctx, 1, ProductParams{Name: "B", Price: 2})

	if _, err := svc.Buy(ctx, 1, a.ID); err != nil {
		t.Fatalf("alice buys A: %v", err)
	}
	if _, err := svc.Buy(ctx, 2, b.ID); err != nil {
		t.Fatalf("bob buys B: %v", err)
	}

	if _, err := svc.Buy(ctx, 2, a.ID); !errors.Is(err, ErrProductUnavailable) {
		t.Fatalf("bob buys A: want ErrProductUnavailable, got %v", err)
	}
	if _, err := svc.Buy(ctx, 1, a.ID); err != nil {
		t.Fatalf("alice re-buys A: %v", err)
	}
	if _, err := svc.Return(ctx, 2, a.ID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("bob returns A: want ErrNotOwner, got %v", err)
	}

	aliceOwned, _ := svc.ListOwned(ctx, 1)
	bobOwned, _ := svc.ListOwned(ctx, 2)
	if got := names(aliceOwned); len(got) != 1 || got[0] != "A" {
		t.Fatalf("alice owned: %v", got)
	}
	if got := names(bobOwned); len(got) != 1 || got[0] != "B" {
		t.Fatalf("bob owned: %v", got)
	}

	if _, err := svc.Return(ctx, 1, a.ID); err != nil {
		t.Fatalf("alice returns A: %v", err)
	}
	avail, _ := svc.ListAvailable(ctx)
	if got := names(avail); len(got) != 1 || got[0] != "A" {
		t.Fatalf("available: %v", got)
	}
}

func TestCatalogService_ListsPartitionProducts(t *testing.T) {
	svc, _, _ := newTestCatalog(OwnershipShared)
	ctx := context.Background()

	ids := make([]int, 0, 6)
	for _, n := range []string{"a", "b", "c", "d", "e", "f"} {
		p, _ := svc.AddProduct(ctx, 1, ProductParams{Name: n, Price: 1})
		ids = append(ids, p.ID)
	}
	ops := []struct {
		buy bool
		idx int
	}{{true, 0}, {true, 2}, {false, 0}, {true, 5}, {true, 5}, {false, 1}, {true, 3}}
	for _, op := range ops {
		var err error
		if op.buy {
			_, err = svc.Buy(ctx, 1, ids[op.idx])
		} else {
			_, err = svc.Return(ctx, 1, ids[op.idx])
		}
		if err != nil {
			t.Fatalf("op %+v: %v", op, err)
		}
	}

	avail, _ := svc.ListAvailable(ctx)
	owned, _ := svc.ListOwned(ctx, 1)
	seen := map[int]int{}
	for _, p := range avail {
		seen[p.ID]++
		if !p.Available {
			t.Fatalf("owned product in available list: %+v", p)
		}
	}
	for _, p := range owned {
		seen[p.ID]++
		if p.Available {
			t.Fatalf("available product in owned list: %+v", p)
		}
	}
	for _, id := range ids {
		if seen[id] != 1 {
			t.Fatalf("product %d seen %d times", id, seen[id])
		}
	}

	sum, err := svc.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Available != len(avail) || sum.Owned != len(owned) || sum.Total != len(ids) {
		t.Fatalf("summary mismatch: %+v", sum)
	}
}

func TestCatalogService_ListCollapsesConcurrentReads(t *testing.T) {
	svc, products, _ := newTestCatalog(OwnershipShared)
	products.listGate = make(chan struct{})

	const callers = 8
	var (
		wg      sync.WaitGroup
		started sync.WaitGroup
	)
	started.Add(callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started.Done()
			_, _ = svc.ListAvailable(context.Background())
		}()
	}
	started.Wait()
	// let the callers pile up behind the first, blocked query
	time.Sleep(50 * time.Millisecond)
	close(products.listGate)
	wg.Wait()

	if products.listCalls >= callers {
		t.Fatalf("expected collapsed reads, got %d repo calls", products.listCalls)
	}
}

func TestCatalogService_ListSurvivesLeaderCancel(t *testing.T) {
	svc, products, _ := newTestCatalog(OwnershipShared)
	if _, err := svc.AddProduct(context.Background(), 1, ProductParams{Name: "Widget", Price: 1}); err != nil {
		t.Fatalf("AddProduct: %v", err)
	}
	products.listGate = make(chan struct{})

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := svc.ListAvailable(leaderCtx)
		leaderErr <- err
	}()
	// leader is now blocked inside the shared query
	time.Sleep(50 * time.Millisecond)

	type result struct {
		list []models.Product
		err  error
	}
	follower := make(chan result, 1)
	go func() {
		list, err := svc.ListAvailable(context.Background())
		follower <- result{list, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelLeader()
	if err := <-leaderErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("leader err=%v, want context.Canceled", err)
	}

	close(products.listGate)
	got := <-follower
	if got.err != nil {
		t.Fatalf("follower with live ctx got err=%v", got.err)
	}
	if len(got.list) != 1 || got.list[0].Name != "Widget" {
		t.Fatalf("follower list=%v", names(got.list))
	}
}
