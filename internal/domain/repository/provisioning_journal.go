package repository

import (
	"context"

	"github.com/okojic12722rn/banka-provisioning/internal/domain/entity"
)

// ProvisioningJournal define el puerto de persistencia del diario de altas.
type ProvisioningJournal interface {
	Append(ctx context.Context, rec *entity.ProvisioningRecord) error
	ListOrphans(ctx context.Context, limit, offset int) ([]*entity.ProvisioningRecord, error)
}
