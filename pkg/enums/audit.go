package enums

import "fmt"

// AuditAction tags an audit log entry.
type AuditAction string

const (
	AuditActionProductCreated AuditAction = "PRODUCT_CREATED"
	AuditActionProductUpdated AuditAction = "PRODUCT_UPDATED"
	AuditActionProductDeleted AuditAction = "PRODUCT_DELETED"
	AuditActionStockUpdated   AuditAction = "STOCK_UPDATED"
	AuditActionOrderShipped   AuditAction = "ORDER_SHIPPED"
)

// OrderAuditAction returns the ORDER_<STATUS> tag recorded for a transition.
func OrderAuditAction(status OrderStatus) AuditAction {
	return AuditAction(fmt.Sprintf("ORDER_%s", status))
}

// String implements fmt.Stringer.
func (a AuditAction) String() string {
	return string(a)
}

// AuditEntityType names the kind of entity an audit entry points at.
type AuditEntityType string

const (
	AuditEntityOrder      AuditEntityType = "order"
	AuditEntityProduct    AuditEntityType = "product"
	AuditEntityStockLevel AuditEntityType = "stock_level"
)

var validAuditEntityTypes = []AuditEntityType{
	AuditEntityOrder,
	AuditEntityProduct,
	AuditEntityStockLevel,
}

// String implements fmt.Stringer.
func (e AuditEntityType) String() string {
	return string(e)
}

// IsValid reports whether the value is a known AuditEntityType.
func (e AuditEntityType) IsValid() bool {
	for _, candidate := range validAuditEntityTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseAuditEntityType converts raw input into an AuditEntityType.
func ParseAuditEntityType(value string) (AuditEntityType, error) {
	for _, candidate := range validAuditEntityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audit entity type %q", value)
}
