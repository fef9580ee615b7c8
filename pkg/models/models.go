package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderType string

const (
	OrderTypeDelivery OrderType = "delivery"
	OrderTypeDineIn   OrderType = "dine_in"
	OrderTypeTakeout  OrderType = "takeout"
)

const DefaultPaymentStatus = "pending"

type Role string

const (
	RoleCustomer        Role = "CUSTOMER"
	RoleRestaurantOwner Role = "RESTAURANT_OWNER"
	RoleDeliveryPartner Role = "DELIVERY_PARTNER"
	RoleAdmin           Role = "ADMIN"
)

// Principal is the authenticated caller.
type Principal struct {
	ID       string `json:"id"`
	Role     Role   `json:"role"`
	VendorID string `json:"vendor_id,omitempty"`
}

type Order struct {
	ID                   string          `json:"id"`
	CustomerID           string          `json:"customer_id"`
	VendorID             *string         `json:"vendor_id,omitempty"`
	OrderNumber          string          `json:"order_number"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
	Status               Status          `json:"status"`
	PaymentMethod        string          `json:"payment_method,omitempty"`
	PaymentStatus        string          `json:"payment_status"`
	DeliveryAddress      string          `json:"delivery_address,omitempty"`
	DeliveryInstructions string          `json:"delivery_instructions,omitempty"`
	OrderType            OrderType       `json:"order_type"`
	TableNumber          *int            `json:"table_number,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
	Lines                []OrderLine     `json:"items,omitempty"`
}

// VendorIDValue returns the vendor id or "" when the order has none.
func (o Order) VendorIDValue() string {
	if o.VendorID == nil {
		return ""
	}
	return *o.VendorID
}

type OrderLine struct {
	ID                  string          `json:"id"`
	OrderID             string          `json:"order_id"`
	MenuItemID          string          `json:"menu_item_id"`
	Quantity            int             `json:"quantity"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	SpecialInstructions string          `json:"special_instructions,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`

	// Name is the catalog name captured at intake, used for message text only.
	Name string `json:"-"`
}

type MenuItem struct {
	ID                string          `json:"id"`
	VendorID          string          `json:"vendor_id"`
	Name              string          `json:"name"`
	Price             decimal.Decimal `json:"price"`
	IsAvailable       bool            `json:"is_available"`
	AvailableQuantity int             `json:"available_quantity"`
}

type Vendor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// Customer is the contact view of a user, used only for notifications.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

type TrackingEntry struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id"`
	Status    Status    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type OrderFilter struct {
	CustomerID string
	VendorID   string
	Status     Status
	Limit      int
	Offset     int
}

type OrderList struct {
	Orders []Order `json:"orders"`
	Count  int     `json:"count"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

type CreateOrderRequest struct {
	Items                []OrderItemRequest `json:"items"`
	VendorID             *string            `json:"vendor_id,omitempty"`
	PaymentMethod        string             `json:"payment_method,omitempty"`
	PaymentStatus        string             `json:"payment_status,omitempty"`
	DeliveryAddress      string             `json:"delivery_address,omitempty"`
	DeliveryInstructions string             `json:"delivery_instructions,omitempty"`
	OrderType            string             `json:"order_type,omitempty"`
	TableNumber          *int               `json:"table_number,omitempty"`

	IdempotencyKey string `json:"-"`
}

type OrderItemRequest struct {
	MenuItemID          string `json:"menu_item_id"`
	Quantity            int    `json:"quantity"`
	SpecialInstructions string `json:"special_instructions,omitempty"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

// OrderMessage is published when an order has been created.
type OrderMessage struct {
	OrderID     string          `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	CustomerID  string          `json:"customer_id"`
	VendorID    string          `json:"vendor_id,omitempty"`
	OrderType   OrderType       `json:"order_type"`
	TableNumber *int            `json:"table_number,omitempty"`
	Items       []OrderLine     `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

// StatusUpdateMessage is published when an order changes status.
type StatusUpdateMessage struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	OldStatus   Status    `json:"old_status"`
	NewStatus   Status    `json:"new_status"`
	ChangedBy   string    `json:"changed_by"`
	Notes       string    `json:"notes,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
