// Package payloads provides typed builders for queue payloads. The queue
// stores payloads schema-less (an opaque JSON document), but producers go
// through these builders so field names stay consistent and required fields
// are checked at the call site.
package payloads

import (
	"errors"
	"time"

	"github.com/graintrack/syncengine/internal/models"
)

// Builder produces the payload map for one queue entry.
type Builder interface {
	// Table names the synchronized table this payload belongs to.
	Table() string

	// Build validates required fields and returns the payload document.
	Build() (map[string]any, error)
}

// Customer is the payload for the customers table.
type Customer struct {
	Name    string
	Phone   string
	Email   string
	Address string
}

func (c Customer) Table() string { return models.TableCustomers }

func (c Customer) Build() (map[string]any, error) {
	if c.Name == "" {
		return nil, errors.New("customer name is required")
	}
	return map[string]any{
		"name":    c.Name,
		"phone":   c.Phone,
		"email":   c.Email,
		"address": c.Address,
	}, nil
}

// InventoryItem is the payload for the inventory table.
type InventoryItem struct {
	SKU          string
	Name         string
	Quantity     float64
	Unit         string
	PricePerUnit float64
}

func (i InventoryItem) Table() string { return models.TableInventory }

func (i InventoryItem) Build() (map[string]any, error) {
	if i.SKU == "" {
		return nil, errors.New("inventory sku is required")
	}
	if i.Name == "" {
		return nil, errors.New("inventory name is required")
	}
	return map[string]any{
		"sku":            i.SKU,
		"name":           i.Name,
		"quantity":       i.Quantity,
		"unit":           i.Unit,
		"price_per_unit": i.PricePerUnit,
	}, nil
}

// Transaction is the payload for the transactions table. CustomerID refers to
// the customer's identifier as known to the producer (local or server side);
// the engine pushes parents first, so by the time a transaction reaches the
// server its customer already exists there.
type Transaction struct {
	CustomerID  string
	Kind        string
	TotalAmount float64
	OccurredAt  time.Time
}

func (t Transaction) Table() string { return models.TableTransactions }

func (t Transaction) Build() (map[string]any, error) {
	if t.CustomerID == "" {
		return nil, errors.New("transaction customer id is required")
	}
	if t.Kind == "" {
		return nil, errors.New("transaction kind is required")
	}
	payload := map[string]any{
		"customer_id":  t.CustomerID,
		"kind":         t.Kind,
		"total_amount": t.TotalAmount,
	}
	if !t.OccurredAt.IsZero() {
		payload["occurred_at"] = t.OccurredAt.UTC().Format(time.RFC3339)
	}
	return payload, nil
}

// TransactionItem is the payload for the transaction_items table.
type TransactionItem struct {
	TransactionID string
	InventoryID   string
	Quantity      float64
	UnitPrice     float64
}

func (t TransactionItem) Table() string { return models.TableTransactionItems }

func (t TransactionItem) Build() (map[string]any, error) {
	if t.TransactionID == "" {
		return nil, errors.New("transaction item transaction id is required")
	}
	if t.InventoryID == "" {
		return nil, errors.New("transaction item inventory id is required")
	}
	return map[string]any{
		"transaction_id": t.TransactionID,
		"inventory_id":   t.InventoryID,
		"quantity":       t.Quantity,
		"unit_price":     t.UnitPrice,
	}, nil
}

// MillingOrder is the payload for the milling_orders table.
type MillingOrder struct {
	CustomerID    string
	InventoryID   string
	InputWeightKg float64
	Status        string
}

func (m MillingOrder) Table() string { return models.TableMillingOrders }

func (m MillingOrder) Build() (map[string]any, error) {
	if m.CustomerID == "" {
		return nil, errors.New("milling order customer id is required")
	}
	if m.InputWeightKg <= 0 {
		return nil, errors.New("milling order input weight must be positive")
	}
	status := m.Status
	if status == "" {
		status = "received"
	}
	return map[string]any{
		"customer_id":     m.CustomerID,
		"inventory_id":    m.InventoryID,
		"input_weight_kg": m.InputWeightKg,
		"status":          status,
	}, nil
}
