package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/appetiteclub/bootheat/pkg/event"
)

// ListMenu is the customer menu: only items on sale, by name.
func (s *Service) ListMenu(ctx context.Context, boothID int64) ([]*MenuItem, error) {
	items, err := s.repos.MenuItemRepo.ListAvailableByBooth(ctx, boothID)
	if err != nil {
		return nil, fmt.Errorf("cannot list menu items: %w", err)
	}
	if items == nil {
		items = []*MenuItem{}
	}
	return items, nil
}

// ListManagerMenu includes hidden and sold-out items.
func (s *Service) ListManagerMenu(ctx context.Context, boothID int64) ([]*MenuItem, error) {
	items, err := s.repos.MenuItemRepo.ListByBooth(ctx, boothID)
	if err != nil {
		return nil, fmt.Errorf("cannot list menu items: %w", err)
	}
	if items == nil {
		items = []*MenuItem{}
	}
	return items, nil
}

// GetMenuItem is scoped to the booth: an item of another booth is not found.
func (s *Service) GetMenuItem(ctx context.Context, boothID, id int64) (*MenuItem, error) {
	item, err := s.repos.MenuItemRepo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("cannot get menu item: %w", err)
	}
	if item == nil || item.BoothID != boothID {
		return nil, &NotFoundError{Resource: "menu item", ID: id}
	}
	return item, nil
}

func (s *Service) CreateMenuItem(ctx context.Context, boothID int64, req MenuCreateRequest) (*MenuItem, error) {
	if req.BoothID != 0 && req.BoothID != boothID {
		return nil, &ConflictError{Reason: "boothId does not match path"}
	}
	if errs := ValidateCreateMenuItem(req); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	name := strings.TrimSpace(req.Name)
	existing, err := s.repos.MenuItemRepo.GetByName(ctx, boothID, name)
	if err != nil {
		return nil, fmt.Errorf("cannot get menu item: %w", err)
	}
	if existing != nil {
		return nil, &ConflictError{Reason: fmt.Sprintf("menu item %q already exists", name)}
	}

	id, err := s.repos.Sequencer.Next(ctx, SeqMenuItems)
	if err != nil {
		return nil, fmt.Errorf("cannot allocate menu item id: %w", err)
	}

	item := &MenuItem{
		ID:           id,
		BoothID:      boothID,
		Name:         name,
		Price:        *req.Price,
		Available:    true,
		ModelURL:     req.ModelURL,
		PreviewImage: req.PreviewImage,
		Description:  req.Description,
		Category:     normalizeCategory(req.Category),
	}
	if req.Available != nil {
		item.Available = *req.Available
	}
	item.BeforeCreate()

	if err := s.repos.MenuItemRepo.Create(ctx, item); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, &ConflictError{Reason: fmt.Sprintf("menu item %q already exists", name)}
		}
		return nil, fmt.Errorf("cannot create menu item: %w", err)
	}

	s.publishMenuEvent(ctx, event.EventMenuItemCreated, item)
	return item, nil
}

func (s *Service) PatchMenuItem(ctx context.Context, boothID, id int64, req MenuPatchRequest) (*MenuItem, error) {
	if errs := ValidatePatchMenuItem(req); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	item, err := s.GetMenuItem(ctx, boothID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
		if trimmed != "" && trimmed != item.Name {
			other, err := s.repos.MenuItemRepo.GetByName(ctx, boothID, trimmed)
			if err != nil {
				return nil, fmt.Errorf("cannot get menu item: %w", err)
			}
			if other != nil {
				return nil, &ConflictError{Reason: fmt.Sprintf("menu item %q already exists", trimmed)}
			}
		}
	}

	item.Apply(req)
	if err := s.repos.MenuItemRepo.Save(ctx, item); err != nil {
		return nil, s.menuSaveError(id, err)
	}

	s.publishMenuEvent(ctx, event.EventMenuItemUpdated, item)
	return item, nil
}

// DeleteMenuItem removes a menu item. Items already referenced by orders are
// hidden instead so history and reporting keep resolving them. It reports
// whether the item was hidden rather than deleted.
func (s *Service) DeleteMenuItem(ctx context.Context, boothID, id int64) (bool, error) {
	item, err := s.GetMenuItem(ctx, boothID, id)
	if err != nil {
		return false, err
	}

	referenced, err := s.repos.OrderRepo.ExistsWithMenuItem(ctx, id)
	if err != nil {
		return false, fmt.Errorf("cannot check menu item references: %w", err)
	}

	if referenced {
		item.Available = false
		item.BeforeUpdate()
		if err := s.repos.MenuItemRepo.Save(ctx, item); err != nil {
			return false, s.menuSaveError(id, err)
		}
		s.publishMenuEvent(ctx, event.EventMenuItemToggled, item)
		return true, nil
	}

	if err := s.repos.MenuItemRepo.Delete(ctx, id); err != nil {
		return false, s.menuSaveError(id, err)
	}

	s.publishMenuEvent(ctx, event.EventMenuItemDeleted, item)
	return false, nil
}

// ToggleAvailable sets availability when a value is given and flips it
// otherwise.
func (s *Service) ToggleAvailable(ctx context.Context, id int64, available *bool) (*MenuItem, error) {
	item, err := s.repos.MenuItemRepo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("cannot get menu item: %w", err)
	}
	if item == nil {
		return nil, &NotFoundError{Resource: "menu item", ID: id}
	}

	if available != nil {
		item.Available = *available
	} else {
		item.Available = !item.Available
	}
	item.BeforeUpdate()

	if err := s.repos.MenuItemRepo.Save(ctx, item); err != nil {
		return nil, s.menuSaveError(id, err)
	}

	s.publishMenuEvent(ctx, event.EventMenuItemToggled, item)
	return item, nil
}

func (s *Service) menuSaveError(id int64, err error) error {
	if errors.Is(err, ErrNotFound) {
		return &NotFoundError{Resource: "menu item", ID: id}
	}
	if errors.Is(err, ErrDuplicate) {
		return &ConflictError{Reason: "menu item name already exists"}
	}
	return fmt.Errorf("cannot save menu item: %w", err)
}
