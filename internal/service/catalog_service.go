package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"storefront/internal/models"
	"storefront/internal/repository"

	"golang.org/x/sync/singleflight"
)

// Ownership modes.
const (
	// OwnershipShared keeps one global pool: anyone may buy or return any product.
	OwnershipShared = "shared"
	// OwnershipPerUser ties an owned product to its buyer.
	OwnershipPerUser = "per_user"
)

type CatalogService struct {
	products  repository.ProductRepo
	tx        repository.Transactor
	activity  recorder
	ownership string
	reads     singleflight.Group
}

func NewCatalogService(products repository.ProductRepo, tx repository.Transactor, activity recorder, ownership string) *CatalogService {
	if ownership != OwnershipPerUser {
		ownership = OwnershipShared
	}
	return &CatalogService{
		products:  products,
		tx:        tx,
		activity:  activity,
		ownership: ownership,
	}
}

func validateProduct(p ProductParams) (ProductParams, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	p.ImageURL = strings.TrimSpace(p.ImageURL)
	if p.Name == "" || p.Price < 0 || math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
		return p, ErrInvalidProduct
	}
	return p, nil
}

// AddProduct creates a product. New products are always available.
func (s *CatalogService) AddProduct(ctx context.Context, userID int, in ProductParams) (models.Product, error) {
	in, err := validateProduct(in)
	if err != nil {
		return models.Product{}, err
	}

	var out models.Product
	err = s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		p := models.Product{
			Name:        in.Name,
			Description: in.Description,
			Price:       in.Price,
			ImageURL:    in.ImageURL,
			Available:   true,
		}
		id, err := s.products.Create(ctx, p)
		if err != nil {
			return err
		}
		created, err := s.products.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if created == nil {
			return fmt.Errorf("product %d vanished after insert", id)
		}
		out = *created
		return s.activity.Record(ctx, models.ActivityEvent{
			Type:        models.EventProductAdd,
			UserID:      userID,
			Description: fmt.Sprintf("added product %q", p.Name),
			Metadata:    map[string]any{"product_id": id, "price": p.Price},
		})
	})
	if err != nil {
		return models.Product{}, err
	}
	return out, nil
}

func (s *CatalogService) ListAvailable(ctx context.Context) ([]models.Product, error) {
	return s.list(ctx, "available", true, nil)
}

// ListOwned returns every owned product in shared mode, only the caller's in per_user mode.
func (s *CatalogService) ListOwned(ctx context.Context, userID int) ([]models.Product, error) {
	if s.ownership == OwnershipPerUser {
		return s.list(ctx, "owned:"+strconv.Itoa(userID), false, &userID)
	}
	return s.list(ctx, "owned", false, nil)
}

// list collapses concurrent identical reads into one query. The shared
// query ignores the leader's cancellation; each caller stops waiting on its own ctx.
func (s *CatalogService) list(ctx context.Context, key string, available bool, ownerID *int) ([]models.Product, error) {
	shared := context.WithoutCancel(ctx)
	ch := s.reads.DoChan(key, func() (any, error) {
		return s.products.ListByAvailability(shared, available, ownerID)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]models.Product), nil
	}
}

// Buy marks the product owned by userID.
func (s *CatalogService) Buy(ctx context.Context, userID, productID int) (models.Product, error) {
	return s.toggle(ctx, userID, productID, false)
}

// Return puts the product back into the available pool.
func (s *CatalogService) Return(ctx context.Context, userID, productID int) (models.Product, error) {
	return s.toggle(ctx, userID, productID, true)
}

func (s *CatalogService) toggle(ctx context.Context, userID, productID int, makeAvailable bool) (models.Product, error) {
	var out models.Product
	err := s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		p, err := s.products.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if p == nil {
			return ErrProductNotFound
		}
		if err := s.checkOwnership(p, userID, makeAvailable); err != nil {
			return err
		}

		var owner *int
		if !makeAvailable {
			owner = &userID
		}
		if err := s.products.SetAvailability(ctx, productID, makeAvailable, owner); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrProductNotFound
			}
			return err
		}
		p.Available = makeAvailable
		p.OwnerID = owner
		out = *p

		ev := models.ActivityEvent{
			Type:     models.EventBuy,
			UserID:   userID,
			Metadata: map[string]any{"product_id": productID},
		}
		if makeAvailable {
			ev.Type = models.EventReturn
			ev.Description = fmt.Sprintf("returned product %q", p.Name)
		} else {
			ev.Description = fmt.Sprintf("bought product %q", p.Name)
		}
		return s.activity.Record(ctx, ev)
	})
	if err != nil {
		return models.Product{}, err
	}
	return out, nil
}

// checkOwnership applies the per_user rules; shared mode allows everything.
func (s *CatalogService) checkOwnership(p *models.Product, userID int, makeAvailable bool) error {
	if s.ownership != OwnershipPerUser || p.Available {
		return nil
	}
	owner := 0
	if p.OwnerID != nil {
		owner = *p.OwnerID
	}
	if owner == userID {
		return nil
	}
	if makeAvailable {
		return ErrNotOwner
	}
	return ErrProductUnavailable
}

func (s *CatalogService) Summary(ctx context.Context) (models.CatalogSummary, error) {
	available, owned, err := s.products.Counts(ctx)
	if err != nil {
		return models.CatalogSummary{}, err
	}
	return models.CatalogSummary{
		Available: available,
		Owned:     owned,
		Total:     available + owned,
		AsOf:      time.Now().UTC(),
	}, nil
}
