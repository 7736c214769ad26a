package catalog

import "fmt"

type CopyStatus string

const (
	StatusAvailable CopyStatus = "available"
	StatusHeld      CopyStatus = "held"
	StatusReserved  CopyStatus = "reserved"
)

func (s CopyStatus) String() string {
	return string(s)
}

// CopyKey identifies one copy within the catalog.
type CopyKey struct {
	ResourceID string
	Number     int
}

func (k CopyKey) String() string {
	return fmt.Sprintf("%s#%d", k.ResourceID, k.Number)
}
