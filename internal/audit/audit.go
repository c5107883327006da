package audit

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
)

// Append grava uma entrada imutável de auditoria na MESMA transação da
// mutação que ela descreve. Nunca é atualizada nem apagada.
func Append(ctx context.Context, tx *sql.Tx, actor, action string, detail map[string]any) error {
	var detailJSON []byte
	if detail != nil {
		b, err := json.Marshal(detail)
		if err != nil {
			return err
		}
		detailJSON = b
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO audit_log (id, actor, action, detail)
		VALUES ($1, $2, $3, $4)`,
		uuid.NewString(), actor, action, detailJSON)
	return err
}
