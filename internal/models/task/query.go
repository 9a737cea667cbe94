package task

import (
	"fmt"
	"strings"
)

type OrderField string

const OrderCreatedAt OrderField = "created_at"
const OrderUpdatedAt OrderField = "updated_at"
const OrderDueDate OrderField = "due_date"
const OrderPriority OrderField = "priority"

type Ordering struct {
	Field OrderField
	Desc  bool
}

// DefaultOrdering — новые задачи первыми.
func DefaultOrdering() Ordering {
	return Ordering{Field: OrderCreatedAt, Desc: true}
}

// ParseOrdering разбирает параметр сортировки вида "due_date" или "-priority".
func ParseOrdering(raw string) (Ordering, error) {
	if raw == "" {
		return DefaultOrdering(), nil
	}

	desc := strings.HasPrefix(raw, "-")
	field := OrderField(strings.TrimPrefix(raw, "-"))

	switch field {
	case OrderCreatedAt, OrderUpdatedAt, OrderDueDate, OrderPriority:
	default:
		return Ordering{}, fmt.Errorf("неизвестное поле сортировки: %q", raw)
	}

	return Ordering{Field: field, Desc: desc}, nil
}

// ListQuery — параметры выборки задач одного владельца.
// Фильтры опциональны и комбинируются через AND.
type ListQuery struct {
	IsCompleted *bool
	Priority    *Priority
	Search      string
	Order       Ordering
	Page        int
	PageSize    int
}
