package notification

import (
	"fmt"
	"strings"

	"wheres-my-food/pkg/models"
)

const maxListedLines = 3

func money(o models.Order) string {
	return "₹" + o.TotalAmount.StringFixed(2)
}

// OrderConfirmation is sent to the customer once an order is placed.
func OrderConfirmation(o models.Order) string {
	var b strings.Builder
	b.WriteString("Order Confirmed!\n\n")
	fmt.Fprintf(&b, "Order #%s\n", o.OrderNumber)
	fmt.Fprintf(&b, "Total: %s\n\n", money(o))

	for i, l := range o.Lines {
		if i == maxListedLines {
			break
		}
		name := l.Name
		if name == "" {
			name = "Item"
		}
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "• %s x%d", name, l.Quantity)
	}
	if extra := len(o.Lines) - maxListedLines; extra > 0 {
		fmt.Fprintf(&b, "\n+%d more items", extra)
	}

	fmt.Fprintf(&b, "\n\nStatus: %s\n", o.Status)
	b.WriteString("We'll notify you when your order is ready!")
	return b.String()
}

// NewOrderAlert is sent to the vendor for every new order.
func NewOrderAlert(o models.Order, customerName string) string {
	if customerName == "" {
		customerName = "Guest"
	}
	total := 0
	for _, l := range o.Lines {
		total += l.Quantity
	}
	orderType := string(o.OrderType)
	if orderType == "" {
		orderType = string(models.OrderTypeDelivery)
	}

	var b strings.Builder
	b.WriteString("New Order Received!\n\n")
	fmt.Fprintf(&b, "Order #%s\n", o.OrderNumber)
	fmt.Fprintf(&b, "Customer: %s\n", customerName)
	fmt.Fprintf(&b, "Items: %d items (%d total)\n", len(o.Lines), total)
	fmt.Fprintf(&b, "Total: %s\n", money(o))
	fmt.Fprintf(&b, "Type: %s\n", orderType)
	if o.TableNumber != nil {
		fmt.Fprintf(&b, "Table: %d\n", *o.TableNumber)
	}
	if o.DeliveryAddress != "" {
		fmt.Fprintf(&b, "Address: %s\n", o.DeliveryAddress)
	}
	b.WriteString("\nPlease check your dashboard to accept or reject.")
	return b.String()
}

// StatusChange is sent to the customer after a status update.
func StatusChange(o models.Order, newStatus models.Status) string {
	switch newStatus {
	case models.StatusAccepted:
		return fmt.Sprintf("Order Accepted!\n\nOrder #%s has been accepted.\nWe're preparing your order now!", o.OrderNumber)
	case models.StatusRejected:
		return fmt.Sprintf("Order Update\n\nOrder #%s has been cancelled.\nWe apologize for any inconvenience.", o.OrderNumber)
	case models.StatusPreparing:
		return fmt.Sprintf("Order Being Prepared!\n\nOrder #%s is now being prepared.\nWe'll notify you when it's ready!", o.OrderNumber)
	case models.StatusReady:
		var b strings.Builder
		b.WriteString("Order Ready!\n\n")
		if o.OrderType == models.OrderTypeDelivery {
			fmt.Fprintf(&b, "Order #%s is ready for delivery!\n", o.OrderNumber)
		} else {
			fmt.Fprintf(&b, "Order #%s is ready for pickup!\n", o.OrderNumber)
		}
		if o.OrderType == models.OrderTypeDineIn && o.TableNumber != nil {
			fmt.Fprintf(&b, "Table: %d\n", *o.TableNumber)
		}
		b.WriteString("Thank you for your order!")
		return b.String()
	case models.StatusDelivered:
		return fmt.Sprintf("Order Delivered!\n\nOrder #%s has been delivered.\nEnjoy your meal!", o.OrderNumber)
	default:
		return fmt.Sprintf("Order Status Update\n\nOrder #%s\nStatus: %s", o.OrderNumber, newStatus)
	}
}
