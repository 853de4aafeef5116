package entity

// Géneros aceptados por el servicio de usuarios.
const (
	GenderMale   = "MALE"
	GenderFemale = "FEMALE"
	GenderOther  = "OTHER"
)

// Customer representa un cliente del banco (persona física dueña de cuentas y empresas).
// El ID lo asigna el servicio de usuarios; dentro del flujo de alta no se modifica.
type Customer struct {
	ID          string
	FirstName   string
	LastName    string
	Username    string
	Email       string
	PhoneNumber string
	Address     string
	BirthDate   string // yyyy-mm-dd tal como llega del formulario; vacío = no informado
	Gender      string // ver constantes Gender*
}

// CustomerFields datos de alta de un cliente (Customer sin ID).
type CustomerFields struct {
	FirstName   string
	LastName    string
	Username    string
	Email       string
	PhoneNumber string
	Address     string
	BirthDate   string
	Gender      string
}

// IsValidGender indica si g es uno de los géneros aceptados (vacío se admite: campo opcional).
func IsValidGender(g string) bool {
	switch g {
	case "", GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}
