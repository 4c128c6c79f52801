package entitykind

import "fmt"

// EntityKind identifies which master-data population an axis classifies.
// The value doubles as the discriminator of the polymorphic reference on
// assignments: there is no database-level foreign key behind entity_id,
// the kind selects which existence oracle vouches for it.
type EntityKind string

const (
	Item         EntityKind = "ITEM"
	Party        EntityKind = "PARTY"
	SupplierSite EntityKind = "SUPPLIER_SITE"
)

func All() []EntityKind {
	return []EntityKind{Item, Party, SupplierSite}
}

func (k EntityKind) IsValid() bool {
	switch k {
	case Item, Party, SupplierSite:
		return true
	}
	return false
}

func (k EntityKind) String() string {
	return string(k)
}

func Parse(v string) (EntityKind, error) {
	k := EntityKind(v)
	if !k.IsValid() {
		return "", fmt.Errorf("unknown entity kind: %q", v)
	}
	return k, nil
}
