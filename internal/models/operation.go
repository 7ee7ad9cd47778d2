// Package models defines the data types shared by the sync engine: queued
// mutations, detected conflicts, status snapshots, and cycle results.
package models

// Operation classifies a queued local mutation.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Valid reports whether op is one of the known operations.
func (op Operation) Valid() bool {
	switch op {
	case OpCreate, OpUpdate, OpDelete:
		return true
	}
	return false
}

// Synchronized tables in fixed dependency order: parents before children, so
// server-side foreign keys always resolve. Push and pull both follow this
// order regardless of enqueue interleaving.
const (
	TableCustomers        = "customers"
	TableInventory        = "inventory"
	TableTransactions     = "transactions"
	TableTransactionItems = "transaction_items"
	TableMillingOrders    = "milling_orders"
)

// TableOrder returns the dependency order as a new slice.
func TableOrder() []string {
	return []string{
		TableCustomers,
		TableInventory,
		TableTransactions,
		TableTransactionItems,
		TableMillingOrders,
	}
}
