package model

// Catalog names a code/name lookup table.
type Catalog string

const (
	CatalogServiceTypes Catalog = "service_types"
	CatalogAlertTypes   Catalog = "alert_types"
	CatalogNoteTypes    Catalog = "note_types"
)

func (c Catalog) Valid() bool {
	switch c {
	case CatalogServiceTypes, CatalogAlertTypes, CatalogNoteTypes:
		return true
	}
	return false
}

// CatalogEntry is a row of a catalog table.
type CatalogEntry struct {
	ID     int64  `json:"id" db:"id"`
	Code   string `json:"code" db:"code"`
	Name   string `json:"name" db:"name"`
	Active bool   `json:"active" db:"active"`
}
