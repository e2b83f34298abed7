package order

import (
	"fmt"
	"strings"

	"github.com/appetiteclub/bootheat/pkg/enums/menucategory"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type OrderCreateRequest struct {
	BoothID int64                    `json:"boothId"`
	TableNo int                      `json:"tableNo"`
	Items   []OrderItemCreateRequest `json:"items"`
	Payment *PaymentRequest          `json:"payment"`
}

type OrderItemCreateRequest struct {
	FoodID   int64  `json:"foodId"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	ImageURL string `json:"imageUrl,omitempty"`
	Quantity int    `json:"quantity"`
}

type PaymentRequest struct {
	PayerName string `json:"payerName"`
	Amount    int64  `json:"amount"`
}

type StatusChangeRequest struct {
	OrderID *int64 `json:"order_id,omitempty"`
	Status  string `json:"status,omitempty"`
}

type CloseVisitRequest struct {
	TableID *int64 `json:"tableId,omitempty"`
}

type TableCreateRequest struct {
	TableNumber *int  `json:"tableNumber,omitempty"`
	Active      *bool `json:"active,omitempty"`
}

type MenuCreateRequest struct {
	BoothID      int64  `json:"boothId,omitempty"`
	Name         string `json:"name"`
	Price        *int64 `json:"price"`
	Available    *bool  `json:"available,omitempty"`
	ModelURL     string `json:"modelUrl,omitempty"`
	PreviewImage string `json:"previewImage,omitempty"`
	Description  string `json:"description,omitempty"`
	Category     string `json:"category"`
}

type MenuPatchRequest struct {
	Name         *string `json:"name,omitempty"`
	Price        *int64  `json:"price,omitempty"`
	Available    *bool   `json:"available,omitempty"`
	ModelURL     *string `json:"modelUrl,omitempty"`
	PreviewImage *string `json:"previewImage,omitempty"`
	Description  *string `json:"description,omitempty"`
	Category     *string `json:"category,omitempty"`
}

type ToggleAvailableRequest struct {
	Available *bool `json:"available"`
}

func ValidateCreateOrder(req OrderCreateRequest) []ValidationError {
	var errors []ValidationError

	if req.BoothID <= 0 {
		errors = append(errors, ValidationError{
			Field:   "boothId",
			Message: "boothId is required",
		})
	}

	if req.TableNo <= 0 {
		errors = append(errors, ValidationError{
			Field:   "tableNo",
			Message: "tableNo is required",
		})
	}

	if len(req.Items) == 0 {
		errors = append(errors, ValidationError{
			Field:   "items",
			Message: "at least one item is required",
		})
	}

	for i, item := range req.Items {
		if item.FoodID <= 0 {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("items[%d].foodId", i),
				Message: "foodId is required",
			})
		}
		if item.Quantity <= 0 {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("items[%d].quantity", i),
				Message: "quantity must be greater than zero",
			})
		}
		if item.Price < 0 {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("items[%d].price", i),
				Message: "price cannot be negative",
			})
		}
	}

	if req.Payment == nil {
		errors = append(errors, ValidationError{
			Field:   "payment",
			Message: "payment is required",
		})
		return errors
	}

	if strings.TrimSpace(req.Payment.PayerName) == "" {
		errors = append(errors, ValidationError{
			Field:   "payment.payerName",
			Message: "payerName is required",
		})
	}

	if req.Payment.Amount < 0 {
		errors = append(errors, ValidationError{
			Field:   "payment.amount",
			Message: "amount cannot be negative",
		})
	}

	return errors
}

func ValidateCreateMenuItem(req MenuCreateRequest) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(req.Name) == "" {
		errors = append(errors, ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	}

	if req.Price == nil {
		errors = append(errors, ValidationError{
			Field:   "price",
			Message: "price is required",
		})
	} else if *req.Price < 0 {
		errors = append(errors, ValidationError{
			Field:   "price",
			Message: "price cannot be negative",
		})
	}

	if strings.TrimSpace(req.Category) == "" {
		errors = append(errors, ValidationError{
			Field:   "category",
			Message: "category is required",
		})
	} else if _, ok := menucategory.Parse(req.Category); !ok {
		errors = append(errors, ValidationError{
			Field:   "category",
			Message: "category must be FOOD or DRINK",
		})
	}

	return errors
}

func ValidatePatchMenuItem(req MenuPatchRequest) []ValidationError {
	var errors []ValidationError

	if req.Price != nil && *req.Price < 0 {
		errors = append(errors, ValidationError{
			Field:   "price",
			Message: "price cannot be negative",
		})
	}

	if req.Category != nil && strings.TrimSpace(*req.Category) != "" {
		if _, ok := menucategory.Parse(*req.Category); !ok {
			errors = append(errors, ValidationError{
				Field:   "category",
				Message: "category must be FOOD or DRINK",
			})
		}
	}

	return errors
}

func ValidateCreateTable(req TableCreateRequest) []ValidationError {
	if req.TableNumber != nil && *req.TableNumber <= 0 {
		return []ValidationError{{
			Field:   "tableNumber",
			Message: "tableNumber must be greater than zero",
		}}
	}
	return nil
}

func ValidateBoothAccount(req BoothAccountRequest) []ValidationError {
	var errors []ValidationError

	required := []struct {
		field string
		value string
	}{
		{"accountBank", req.AccountBank},
		{"accountNo", req.AccountNo},
		{"accountHolder", req.AccountHolder},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errors = append(errors, ValidationError{
				Field:   r.field,
				Message: r.field + " is required",
			})
		}
	}

	return errors
}

func normalizeCategory(raw string) string {
	c, ok := menucategory.Parse(raw)
	if !ok {
		return strings.ToUpper(strings.TrimSpace(raw))
	}
	return c.Code()
}
