package entity

// Company representa una empresa cliente del banco. Siempre tiene exactamente un dueño (Customer).
type Company struct {
	ID                 string
	Name               string
	RegistrationNumber string // matični broj
	TaxID              string // PIB
	Address            string
	ActivityCode       string // código de actividad, ver pkg/catalog
	OwnerID            string
}

// CompanyFields datos de alta de una empresa (Company sin ID).
// OwnerID lo impone el flujo a partir del dueño seleccionado.
type CompanyFields struct {
	Name               string
	RegistrationNumber string
	TaxID              string
	Address            string
	ActivityCode       string
	OwnerID            string
}
