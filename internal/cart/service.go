package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/dnofulla/marketcove-backend/internal/items"
	"github.com/dnofulla/marketcove-backend/pkg/db"
	"github.com/dnofulla/marketcove-backend/pkg/db/models"
	pkgerrors "github.com/dnofulla/marketcove-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service exposes the cart operations used by the cart controller.
type Service interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*CartResponse, error)
	AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*CartResponse, error)
	UpdateItem(ctx context.Context, userID, lineID uuid.UUID, req UpdateItemRequest) (*CartResponse, error)
	RemoveItem(ctx context.Context, userID, lineID uuid.UUID) (*CartResponse, error)
	Clear(ctx context.Context, userID uuid.UUID) (*CartResponse, error)
	ItemCount(ctx context.Context, userID uuid.UUID) (*ItemCountResponse, error)
}

// TxRunner executes a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartRepository interface {
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	FindByUserForUpdate(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	Create(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	ListItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error)
	FindLine(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error)
	FindLineByID(ctx context.Context, lineID uuid.UUID) (*models.CartItem, error)
	CreateLine(ctx context.Context, line *models.CartItem) error
	UpdateLineQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error
	DeleteLine(ctx context.Context, lineID uuid.UUID) error
	DeleteAllLines(ctx context.Context, cartID uuid.UUID) error
	UpdateTotals(ctx context.Context, cartID uuid.UUID, totalAmount decimal.Decimal, totalItems int) error
}

type itemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Item, error)
}

// ServiceParams bundles the cart service dependencies. The repo factories
// default to the GORM-backed implementations.
type ServiceParams struct {
	TxRunner        TxRunner
	CartRepoFactory func(tx *gorm.DB) cartRepository
	ItemRepoFactory func(tx *gorm.DB) itemRepository
}

type service struct {
	tx       TxRunner
	cartRepo func(tx *gorm.DB) cartRepository
	itemRepo func(tx *gorm.DB) itemRepository
}

// NewService constructs the cart service.
func NewService(params ServiceParams) (Service, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	cartRepo := params.CartRepoFactory
	if cartRepo == nil {
		cartRepo = func(tx *gorm.DB) cartRepository { return NewRepository(tx) }
	}
	itemRepo := params.ItemRepoFactory
	if itemRepo == nil {
		itemRepo = func(tx *gorm.DB) itemRepository { return items.NewRepository(tx) }
	}
	return &service{
		tx:       params.TxRunner,
		cartRepo: cartRepo,
		itemRepo: itemRepo,
	}, nil
}

func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*CartResponse, error) {
	var out *CartResponse
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.cartRepo(tx)
		cart, err := s.getOrCreate(ctx, repo, userID)
		if err != nil {
			return err
		}
		out, err = s.render(ctx, tx, cart)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*CartResponse, error) {
	if req.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var out *CartResponse
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.cartRepo(tx)
		cart, err := s.getOrCreateLocked(ctx, repo, userID)
		if err != nil {
			return err
		}

		item, err := s.itemRepo(tx).FindByID(ctx, req.ItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup item")
		}
		// A delisted item still exists; buying it is a validation failure,
		// not a missing resource.
		if !item.Active {
			return pkgerrors.New(pkgerrors.CodeValidation, "item is not available")
		}

		line, err := repo.FindLine(ctx, cart.ID, item.ID)
		switch {
		case err == nil:
			// The combined quantity is checked so repeat adds cannot
			// walk past the advisory stock level one request at a time.
			combined := line.Quantity + req.Quantity
			if err := checkStock(item, combined, line.Quantity); err != nil {
				return err
			}
			if err := repo.UpdateLineQuantity(ctx, line.ID, combined); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart line")
			}

		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := checkStock(item, req.Quantity, 0); err != nil {
				return err
			}
			newLine := &models.CartItem{
				CartID:      cart.ID,
				ItemID:      item.ID,
				Quantity:    req.Quantity,
				PriceAtTime: item.Price,
			}
			if err := repo.CreateLine(ctx, newLine); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart line")
			}

		default:
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup cart line")
		}

		out, err = s.renderAndSave(ctx, tx, cart)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) UpdateItem(ctx context.Context, userID, lineID uuid.UUID, req UpdateItemRequest) (*CartResponse, error) {
	var out *CartResponse
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.cartRepo(tx)
		cart, err := s.getOrCreateLocked(ctx, repo, userID)
		if err != nil {
			return err
		}

		line, err := s.ownedLine(ctx, repo, cart, lineID)
		if err != nil {
			return err
		}

		if req.Quantity <= 0 {
			if err := repo.DeleteLine(ctx, line.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart line")
			}
		} else {
			item, err := s.itemRepo(tx).FindByID(ctx, line.ItemID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "item no longer exists")
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup item")
			}
			if !item.Active {
				return pkgerrors.New(pkgerrors.CodeValidation, "item is not available")
			}
			if err := checkStock(item, req.Quantity, line.Quantity); err != nil {
				return err
			}
			if err := repo.UpdateLineQuantity(ctx, line.ID, req.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart line")
			}
		}

		out, err = s.renderAndSave(ctx, tx, cart)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) RemoveItem(ctx context.Context, userID, lineID uuid.UUID) (*CartResponse, error) {
	var out *CartResponse
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.cartRepo(tx)
		cart, err := s.getOrCreateLocked(ctx, repo, userID)
		if err != nil {
			return err
		}

		line, err := s.ownedLine(ctx, repo, cart, lineID)
		if err != nil {
			return err
		}
		if err := repo.DeleteLine(ctx, line.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart line")
		}

		out, err = s.renderAndSave(ctx, tx, cart)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) (*CartResponse, error) {
	var out *CartResponse
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.cartRepo(tx)
		cart, err := s.getOrCreateLocked(ctx, repo, userID)
		if err != nil {
			return err
		}
		if err := repo.DeleteAllLines(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
		}
		out, err = s.renderAndSave(ctx, tx, cart)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ItemCount reads the persisted counter off the cart row and never
// creates one: a user who has not shopped yet simply has zero items.
func (s *service) ItemCount(ctx context.Context, userID uuid.UUID) (*ItemCountResponse, error) {
	out := &ItemCountResponse{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.cartRepo(tx)
		cart, err := repo.FindByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup cart")
		}
		out.Count = int64(cart.TotalItems)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) getOrCreate(ctx context.Context, repo cartRepository, userID uuid.UUID) (*models.Cart, error) {
	cart, err := repo.FindByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup cart")
	}

	cart, err = repo.Create(ctx, userID)
	if err != nil {
		// A concurrent request won the insert race; load its cart.
		if db.IsUniqueViolation(err, "idx_carts_user_id") {
			existing, findErr := repo.FindByUser(ctx, userID)
			if findErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, findErr, "reload cart")
			}
			return existing, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
	}
	return cart, nil
}

func (s *service) getOrCreateLocked(ctx context.Context, repo cartRepository, userID uuid.UUID) (*models.Cart, error) {
	cart, err := repo.FindByUserForUpdate(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock cart")
	}

	if _, err := s.getOrCreate(ctx, repo, userID); err != nil {
		return nil, err
	}
	cart, err = repo.FindByUserForUpdate(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock cart")
	}
	return cart, nil
}

func (s *service) ownedLine(ctx context.Context, repo cartRepository, cart *models.Cart, lineID uuid.UUID) (*models.CartItem, error) {
	line, err := repo.FindLineByID(ctx, lineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup cart line")
	}
	if line.CartID != cart.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cart item belongs to another cart")
	}
	return line, nil
}

// renderAndSave re-renders the cart and stamps the recomputed totals on
// the cart row so the persisted counters stay in step with the lines.
func (s *service) renderAndSave(ctx context.Context, tx *gorm.DB, cart *models.Cart) (*CartResponse, error) {
	resp, err := s.render(ctx, tx, cart)
	if err != nil {
		return nil, err
	}
	if err := s.cartRepo(tx).UpdateTotals(ctx, cart.ID, resp.TotalPrice, resp.TotalItems); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist cart totals")
	}
	return resp, nil
}

func (s *service) render(ctx context.Context, tx *gorm.DB, cart *models.Cart) (*CartResponse, error) {
	repo := s.cartRepo(tx)
	lines, err := repo.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cart items")
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ItemID)
	}
	catalog, err := s.itemRepo(tx).ListByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load items")
	}

	resp := &CartResponse{
		ID:         cart.ID,
		Items:      make([]CartLine, 0, len(lines)),
		TotalPrice: decimal.Zero,
	}
	for _, line := range lines {
		rendered := CartLine{
			ID:          line.ID,
			ItemID:      line.ItemID,
			Quantity:    line.Quantity,
			PriceAtTime: line.PriceAtTime,
			LineTotal:   line.PriceAtTime.Mul(decimal.NewFromInt(int64(line.Quantity))),
		}
		if item, ok := catalog[line.ItemID]; ok {
			rendered.ItemName = item.Name
			if !item.Price.Equal(line.PriceAtTime) {
				price := item.Price
				rendered.PriceChanged = true
				rendered.CurrentItemPrice = &price
			}
		}
		resp.TotalItems += line.Quantity
		resp.TotalPrice = resp.TotalPrice.Add(rendered.LineTotal)
		resp.Items = append(resp.Items, rendered)
	}
	return resp, nil
}

func checkStock(item *models.Item, requested, inCart int) error {
	if requested <= item.StockQuantity {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeConflict,
		fmt.Sprintf("insufficient stock for %q: %d available, %d already in cart",
			item.Name, item.StockQuantity, inCart)).
		WithDetails(map[string]any{
			"itemId":    item.ID,
			"available": item.StockQuantity,
			"inCart":    inCart,
			"requested": requested,
		})
}
