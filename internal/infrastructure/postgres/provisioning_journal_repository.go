package postgres

import (
	"context"
	"fmt"

	"github.com/okojic12722rn/banka-provisioning/internal/domain"
	"github.com/okojic12722rn/banka-provisioning/internal/domain/entity"
	"github.com/okojic12722rn/banka-provisioning/internal/domain/repository"
)

var _ repository.ProvisioningJournal = (*ProvisioningJournalRepo)(nil)

const journalColumns = `id, session_id, operator_id, category, outcome, owner_id, company_id, account_id,
	starting_balance, create_card, error_kind, error_message, orphan_customer, orphan_company, created_at`

// ProvisioningJournalRepo implementación de ProvisioningJournal (usable con pool o tx).
type ProvisioningJournalRepo struct {
	q Querier
}

// NewProvisioningJournalRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProvisioningJournalRepository(q Querier) *ProvisioningJournalRepo {
	return &ProvisioningJournalRepo{q: q}
}

// Append inserta una fila. Un id repetido devuelve domain.ErrDuplicate.
func (r *ProvisioningJournalRepo) Append(ctx context.Context, rec *entity.ProvisioningRecord) error {
	query := `INSERT INTO provisioning_journal (` + journalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		rec.ID, rec.SessionID, rec.OperatorID, string(rec.Category), rec.Outcome,
		rec.OwnerID, rec.CompanyID, rec.AccountID,
		rec.StartingBalance, rec.CreateCard, rec.ErrorKind, rec.ErrorMessage,
		rec.OrphanCustomer, rec.OrphanCompany, rec.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert provisioning_journal: %w", err)
	}
	return nil
}

// ListOrphans lista las ejecuciones que dejaron clientes o empresas sin cuenta, más recientes primero.
func (r *ProvisioningJournalRepo) ListOrphans(ctx context.Context, limit, offset int) ([]*entity.ProvisioningRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + journalColumns + `
		FROM provisioning_journal
		WHERE orphan_customer OR orphan_company
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list orphans: %w", err)
	}
	defer rows.Close()

	var list []*entity.ProvisioningRecord
	for rows.Next() {
		var rec entity.ProvisioningRecord
		var category string
		if err := rows.Scan(
			&rec.ID, &rec.SessionID, &rec.OperatorID, &category, &rec.Outcome,
			&rec.OwnerID, &rec.CompanyID, &rec.AccountID,
			&rec.StartingBalance, &rec.CreateCard, &rec.ErrorKind, &rec.ErrorMessage,
			&rec.OrphanCustomer, &rec.OrphanCompany, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan provisioning_journal: %w", err)
		}
		rec.Category = entity.Category(category)
		list = append(list, &rec)
	}
	return list, rows.Err()
}
