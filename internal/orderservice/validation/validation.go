package validation

import (
	"fmt"

	"wheres-my-food/pkg/models"
)

type OrderValidator struct{}

func NewOrderValidator() *OrderValidator {
	return &OrderValidator{}
}

// Validate checks the request shape. Catalog checks happen later, at intake.
// Quantities and table numbers carry no upper bound; stock is the only limit.
func (v *OrderValidator) Validate(req *models.CreateOrderRequest) error {
	if err := v.validateItems(req.Items); err != nil {
		return invalid(err.Error())
	}
	if _, err := v.validateOrderType(req.OrderType); err != nil {
		return err
	}
	return nil
}

// OrderType returns the normalized order type, defaulting to delivery.
func (v *OrderValidator) OrderType(raw string) models.OrderType {
	if raw == "" {
		return models.OrderTypeDelivery
	}
	return models.OrderType(raw)
}

func (v *OrderValidator) validateOrderType(raw string) (models.OrderType, error) {
	ot := v.OrderType(raw)
	switch ot {
	case models.OrderTypeDelivery, models.OrderTypeDineIn, models.OrderTypeTakeout:
		return ot, nil
	default:
		return "", invalid("order_type must be one of: delivery, dine_in, takeout")
	}
}

func (v *OrderValidator) validateItems(items []models.OrderItemRequest) error {
	if len(items) == 0 {
		return fmt.Errorf("items must not be empty")
	}
	for i, item := range items {
		if item.MenuItemID == "" {
			return fmt.Errorf("items[%d].menu_item_id is required", i)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("items[%d].quantity must be greater than 0", i)
		}
	}
	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", models.ErrInvalidRequest, msg)
}
