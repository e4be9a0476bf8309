package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"pet-health-tracker/internal/domain/medications"
	"pet-health-tracker/internal/ports/persistence"
)

type MedicationRepo struct {
	db *sql.DB
}

var _ medications.Repository = (*MedicationRepo)(nil)

const medicationColumns = `
	id, pet_id, owner, name, type, dosage, unit, schedule, comment,
	inventory_enabled, inventory_total, inventory_current, inventory_warning_threshold,
	is_active, created_at
`

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func scanMedication(row rowScanner) (medications.Medication, error) {
	var (
		m                         medications.Medication
		schedule                  []byte
		total, current, threshold sql.NullFloat64
	)
	if err := row.Scan(
		&m.ID, &m.PetID, &m.Owner, &m.Name, &m.Type, &m.Dosage, &m.Unit, &schedule, &m.Comment,
		&m.InventoryEnabled, &total, &current, &threshold,
		&m.IsActive, &m.CreatedAt,
	); err != nil {
		return medications.Medication{}, err
	}
	if len(schedule) > 0 {
		if err := json.Unmarshal(schedule, &m.Schedule); err != nil {
			return medications.Medication{}, err
		}
	}
	m.InventoryTotal = floatPtr(total)
	m.InventoryCurrent = floatPtr(current)
	m.InventoryWarningThreshold = floatPtr(threshold)
	m.CreatedAt = m.CreatedAt.UTC()
	return m, nil
}

func scanIntake(row rowScanner) (medications.Intake, error) {
	var in medications.Intake
	if err := row.Scan(&in.ID, &in.MedicationID, &in.PetID, &in.DateTime, &in.DoseTaken, &in.Username, &in.Comment, &in.CreatedAt); err != nil {
		return medications.Intake{}, err
	}
	in.DateTime = in.DateTime.UTC()
	in.CreatedAt = in.CreatedAt.UTC()
	return in, nil
}

func (r *MedicationRepo) Create(ctx context.Context, m medications.Medication) error {
	schedule, err := json.Marshal(m.Schedule)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO medications (`+medicationColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8::jsonb,$9,$10,$11,$12,$13,$14,$15)
	`,
		m.ID, m.PetID, m.Owner, m.Name, m.Type, m.Dosage, m.Unit, string(schedule), m.Comment,
		m.InventoryEnabled, nullFloat(m.InventoryTotal), nullFloat(m.InventoryCurrent), nullFloat(m.InventoryWarningThreshold),
		m.IsActive, m.CreatedAt,
	)
	return mapErr(err)
}

func (r *MedicationRepo) GetByID(ctx context.Context, id string) (medications.Medication, error) {
	m, err := scanMedication(r.db.QueryRowContext(ctx, `SELECT `+medicationColumns+` FROM medications WHERE id = $1`, id))
	if err != nil {
		return medications.Medication{}, mapErr(err)
	}
	return m, nil
}

func (r *MedicationRepo) ListByPet(ctx context.Context, petID string) ([]medications.Medication, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+medicationColumns+` FROM medications
		WHERE pet_id = $1
		ORDER BY created_at ASC, id ASC
	`, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]medications.Medication, 0)
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MedicationRepo) Update(ctx context.Context, m medications.Medication) error {
	schedule, err := json.Marshal(m.Schedule)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE medications
		SET
			name = $2,
			type = $3,
			dosage = $4,
			unit = $5,
			schedule = $6::jsonb,
			comment = $7,
			inventory_enabled = $8,
			inventory_total = $9,
			inventory_current = $10,
			inventory_warning_threshold = $11,
			is_active = $12
		WHERE id = $1
	`,
		m.ID, m.Name, m.Type, m.Dosage, m.Unit, string(schedule), m.Comment,
		m.InventoryEnabled, nullFloat(m.InventoryTotal), nullFloat(m.InventoryCurrent), nullFloat(m.InventoryWarningThreshold),
		m.IsActive,
	)
	if err != nil {
		return err
	}
	if affected(res) == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (r *MedicationRepo) Delete(ctx context.Context, id string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM medications WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	if affected(res) == 0 {
		return false, nil
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM medication_intakes WHERE medication_id = $1`, id); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

func (r *MedicationRepo) CreateIntake(ctx context.Context, in medications.Intake) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO medication_intakes (id, medication_id, pet_id, date_time, dose_taken, username, comment, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, in.ID, in.MedicationID, in.PetID, in.DateTime, in.DoseTaken, in.Username, in.Comment, in.CreatedAt)
	return mapErr(err)
}

const intakeColumns = `id, medication_id, pet_id, date_time, dose_taken, username, comment, created_at`

func (r *MedicationRepo) GetIntake(ctx context.Context, id string) (medications.Intake, error) {
	in, err := scanIntake(r.db.QueryRowContext(ctx, `SELECT `+intakeColumns+` FROM medication_intakes WHERE id = $1`, id))
	if err != nil {
		return medications.Intake{}, mapErr(err)
	}
	return in, nil
}

func (r *MedicationRepo) ListIntakes(ctx context.Context, medicationID string, skip, limit int64) ([]medications.Intake, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM medication_intakes WHERE medication_id = $1`, medicationID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+intakeColumns+` FROM medication_intakes
		WHERE medication_id = $1
		ORDER BY date_time DESC, id DESC`+pageClause(skip, limit), medicationID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]medications.Intake, 0)
	for rows.Next() {
		in, err := scanIntake(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, in)
	}
	return out, total, rows.Err()
}

func (r *MedicationRepo) DeleteIntake(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM medication_intakes WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return affected(res) > 0, nil
}

func (r *MedicationRepo) DebitInventory(ctx context.Context, medicationID string, amount float64) (*float64, error) {
	return r.adjust(ctx, medicationID, -amount)
}

func (r *MedicationRepo) CreditInventory(ctx context.Context, medicationID string, amount float64) (*float64, error) {
	return r.adjust(ctx, medicationID, amount)
}

// adjust resuelve el piso en 0 en el mismo UPDATE.
func (r *MedicationRepo) adjust(ctx context.Context, medicationID string, delta float64) (*float64, error) {
	var v float64
	err := r.db.QueryRowContext(ctx, `
		UPDATE medications
		SET inventory_current = GREATEST(inventory_current + $2, 0)
		WHERE id = $1 AND inventory_current IS NOT NULL
		RETURNING inventory_current
	`, medicationID, delta).Scan(&v)
	if err == nil {
		return &v, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM medications WHERE id = $1)`, medicationID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, persistence.ErrNotFound
	}
	return nil, nil
}

func (r *MedicationRepo) IntakeStats(ctx context.Context, medicationIDs []string, from, to time.Time) (map[string]medications.IntakeStats, error) {
	out := make(map[string]medications.IntakeStats, len(medicationIDs))
	if len(medicationIDs) == 0 {
		return out, nil
	}
	for _, id := range medicationIDs {
		out[id] = medications.IntakeStats{}
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT medication_id,
		       COUNT(*) FILTER (WHERE date_time >= $2 AND date_time < $3),
		       MAX(date_time)
		FROM medication_intakes
		WHERE medication_id = ANY($1)
		GROUP BY medication_id
	`, medicationIDs, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id    string
			today int64
			last  time.Time
		)
		if err := rows.Scan(&id, &today, &last); err != nil {
			return nil, err
		}
		last = last.UTC()
		out[id] = medications.IntakeStats{TodayCount: today, LastTakenAt: &last}
	}
	return out, rows.Err()
}
