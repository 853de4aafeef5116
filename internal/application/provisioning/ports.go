package provisioning

import (
	"context"

	"github.com/okojic12722rn/banka-provisioning/internal/domain/entity"
)

// CustomerRegistrar crea clientes en el servicio de usuarios.
// Errores: *domain.RemoteWriteError, *domain.MissingIdentifierError, *domain.ValidationError.
type CustomerRegistrar interface {
	Create(ctx context.Context, fields entity.CustomerFields) (string, error)
}

// CompanyRegistrar crea empresas en el servicio bancario. fields.OwnerID es obligatorio.
type CompanyRegistrar interface {
	Create(ctx context.Context, fields entity.CompanyFields) (string, error)
}

// AccountProvisioner crea cuentas corrientes en el servicio bancario.
// El id devuelto puede venir vacío: al flujo solo le importa que la escritura fue exitosa.
type AccountProvisioner interface {
	Create(ctx context.Context, account *entity.Account) (string, error)
}
