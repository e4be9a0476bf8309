package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pet-health-tracker/internal/domain/medications"
	"pet-health-tracker/internal/ports/persistence"
)

type MedicationRepo struct {
	meds    *mongo.Collection
	intakes *mongo.Collection
}

var _ medications.Repository = (*MedicationRepo)(nil)

func newMedicationRepo(db *mongo.Database) *MedicationRepo {
	return &MedicationRepo{
		meds:    db.Collection(medications.Collection),
		intakes: db.Collection(medications.IntakesCollection),
	}
}

type scheduleDoc struct {
	Days  []int    `bson:"days"`
	Times []string `bson:"times"`
}

type medicationDoc struct {
	ID                        primitive.ObjectID `bson:"_id"`
	PetID                     string             `bson:"pet_id"`
	Owner                     string             `bson:"owner"`
	Name                      string             `bson:"name"`
	Type                      string             `bson:"type"`
	Dosage                    string             `bson:"dosage"`
	Unit                      string             `bson:"unit"`
	Schedule                  scheduleDoc        `bson:"schedule"`
	Comment                   string             `bson:"comment"`
	InventoryEnabled          bool               `bson:"inventory_enabled"`
	InventoryTotal            *float64           `bson:"inventory_total"`
	InventoryCurrent          *float64           `bson:"inventory_current"`
	InventoryWarningThreshold *float64           `bson:"inventory_warning_threshold"`
	IsActive                  bool               `bson:"is_active"`
	CreatedAt                 time.Time          `bson:"created_at"`
}

type intakeDoc struct {
	ID           primitive.ObjectID `bson:"_id"`
	MedicationID string             `bson:"medication_id"`
	PetID        string             `bson:"pet_id"`
	DateTime     time.Time          `bson:"date_time"`
	DoseTaken    float64            `bson:"dose_taken"`
	Username     string             `bson:"username"`
	Comment      string             `bson:"comment"`
	CreatedAt    time.Time          `bson:"created_at"`
}

func toMedicationDoc(m medications.Medication) (medicationDoc, error) {
	id, err := oid(m.ID)
	if err != nil {
		return medicationDoc{}, err
	}
	return medicationDoc{
		ID:                        id,
		PetID:                     m.PetID,
		Owner:                     m.Owner,
		Name:                      m.Name,
		Type:                      m.Type,
		Dosage:                    m.Dosage,
		Unit:                      m.Unit,
		Schedule:                  scheduleDoc{Days: m.Schedule.Days, Times: m.Schedule.Times},
		Comment:                   m.Comment,
		InventoryEnabled:          m.InventoryEnabled,
		InventoryTotal:            m.InventoryTotal,
		InventoryCurrent:          m.InventoryCurrent,
		InventoryWarningThreshold: m.InventoryWarningThreshold,
		IsActive:                  m.IsActive,
		CreatedAt:                 m.CreatedAt,
	}, nil
}

func (d medicationDoc) toDomain() medications.Medication {
	return medications.Medication{
		ID:                        d.ID.Hex(),
		PetID:                     d.PetID,
		Owner:                     d.Owner,
		Name:                      d.Name,
		Type:                      d.Type,
		Dosage:                    d.Dosage,
		Unit:                      d.Unit,
		Schedule:                  medications.Schedule{Days: d.Schedule.Days, Times: d.Schedule.Times},
		Comment:                   d.Comment,
		InventoryEnabled:          d.InventoryEnabled,
		InventoryTotal:            d.InventoryTotal,
		InventoryCurrent:          d.InventoryCurrent,
		InventoryWarningThreshold: d.InventoryWarningThreshold,
		IsActive:                  d.IsActive,
		CreatedAt:                 d.CreatedAt.UTC(),
	}
}

func (d intakeDoc) toDomain() medications.Intake {
	return medications.Intake{
		ID:           d.ID.Hex(),
		MedicationID: d.MedicationID,
		PetID:        d.PetID,
		DateTime:     d.DateTime.UTC(),
		DoseTaken:    d.DoseTaken,
		Username:     d.Username,
		Comment:      d.Comment,
		CreatedAt:    d.CreatedAt.UTC(),
	}
}

func (r *MedicationRepo) Create(ctx context.Context, m medications.Medication) error {
	doc, err := toMedicationDoc(m)
	if err != nil {
		return err
	}
	_, err = r.meds.InsertOne(ctx, doc)
	return mapErr(err)
}

func (r *MedicationRepo) GetByID(ctx context.Context, id string) (medications.Medication, error) {
	o, err := oid(id)
	if err != nil {
		return medications.Medication{}, err
	}
	var doc medicationDoc
	if err := r.meds.FindOne(ctx, bson.M{"_id": o}).Decode(&doc); err != nil {
		return medications.Medication{}, mapErr(err)
	}
	return doc.toDomain(), nil
}

func (r *MedicationRepo) ListByPet(ctx context.Context, petID string) ([]medications.Medication, error) {
	cur, err := r.meds.Find(ctx, bson.M{"pet_id": petID}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []medicationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]medications.Medication, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *MedicationRepo) Update(ctx context.Context, m medications.Medication) error {
	doc, err := toMedicationDoc(m)
	if err != nil {
		return err
	}
	set := bson.M{
		"name":                        doc.Name,
		"type":                        doc.Type,
		"dosage":                      doc.Dosage,
		"unit":                        doc.Unit,
		"schedule":                    doc.Schedule,
		"comment":                     doc.Comment,
		"inventory_enabled":           doc.InventoryEnabled,
		"inventory_total":             doc.InventoryTotal,
		"inventory_current":           doc.InventoryCurrent,
		"inventory_warning_threshold": doc.InventoryWarningThreshold,
		"is_active":                   doc.IsActive,
	}
	res, err := r.meds.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (r *MedicationRepo) Delete(ctx context.Context, id string) (bool, error) {
	o, err := oid(id)
	if err != nil {
		return false, nil
	}
	res, err := r.meds.DeleteOne(ctx, bson.M{"_id": o})
	if err != nil {
		return false, err
	}
	if res.DeletedCount == 0 {
		return false, nil
	}
	if _, err := r.intakes.DeleteMany(ctx, bson.M{"medication_id": id}); err != nil {
		return true, err
	}
	return true, nil
}

func (r *MedicationRepo) CreateIntake(ctx context.Context, in medications.Intake) error {
	id, err := oid(in.ID)
	if err != nil {
		return err
	}
	_, err = r.intakes.InsertOne(ctx, intakeDoc{
		ID:           id,
		MedicationID: in.MedicationID,
		PetID:        in.PetID,
		DateTime:     in.DateTime,
		DoseTaken:    in.DoseTaken,
		Username:     in.Username,
		Comment:      in.Comment,
		CreatedAt:    in.CreatedAt,
	})
	return mapErr(err)
}

func (r *MedicationRepo) GetIntake(ctx context.Context, id string) (medications.Intake, error) {
	o, err := oid(id)
	if err != nil {
		return medications.Intake{}, err
	}
	var doc intakeDoc
	if err := r.intakes.FindOne(ctx, bson.M{"_id": o}).Decode(&doc); err != nil {
		return medications.Intake{}, mapErr(err)
	}
	return doc.toDomain(), nil
}

func (r *MedicationRepo) ListIntakes(ctx context.Context, medicationID string, skip, limit int64) ([]medications.Intake, int64, error) {
	filter := bson.M{"medication_id": medicationID}
	total, err := r.intakes.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	cur, err := r.intakes.Find(ctx, filter, listWindow(bson.D{{Key: "date_time", Value: -1}, {Key: "_id", Value: -1}}, skip, limit))
	if err != nil {
		return nil, 0, err
	}
	var docs []intakeDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, err
	}
	out := make([]medications.Intake, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, total, nil
}

func (r *MedicationRepo) DeleteIntake(ctx context.Context, id string) (bool, error) {
	o, err := oid(id)
	if err != nil {
		return false, nil
	}
	res, err := r.intakes.DeleteOne(ctx, bson.M{"_id": o})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *MedicationRepo) DebitInventory(ctx context.Context, medicationID string, amount float64) (*float64, error) {
	return r.adjust(ctx, medicationID, -amount)
}

func (r *MedicationRepo) CreditInventory(ctx context.Context, medicationID string, amount float64) (*float64, error) {
	return r.adjust(ctx, medicationID, amount)
}

// adjust hace el update en el servidor con un pipeline: $max contra 0 evita
// que dos tomas concurrentes dejen stock negativo.
func (r *MedicationRepo) adjust(ctx context.Context, medicationID string, delta float64) (*float64, error) {
	o, err := oid(medicationID)
	if err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"inventory_current": bson.M{"$max": bson.A{0, bson.M{"$add": bson.A{"$inventory_current", delta}}}},
		}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc medicationDoc
	err = r.meds.FindOneAndUpdate(ctx, bson.M{"_id": o, "inventory_current": bson.M{"$ne": nil}}, pipeline, opts).Decode(&doc)
	if err == nil {
		return doc.InventoryCurrent, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// Sin match: o no existe o no lleva stock.
	n, err := r.meds.CountDocuments(ctx, bson.M{"_id": o})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, persistence.ErrNotFound
	}
	return nil, nil
}

func (r *MedicationRepo) IntakeStats(ctx context.Context, medicationIDs []string, from, to time.Time) (map[string]medications.IntakeStats, error) {
	out := make(map[string]medications.IntakeStats, len(medicationIDs))
	if len(medicationIDs) == 0 {
		return out, nil
	}

	inRange := bson.M{"$and": bson.A{
		bson.M{"$gte": bson.A{"$date_time", from}},
		bson.M{"$lt": bson.A{"$date_time", to}},
	}}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"medication_id": bson.M{"$in": medicationIDs}}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$medication_id",
			"today": bson.M{"$sum": bson.M{"$cond": bson.A{inRange, 1, 0}}},
			"last":  bson.M{"$max": "$date_time"},
		}}},
	}

	cur, err := r.intakes.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ID    string    `bson:"_id"`
		Today int64     `bson:"today"`
		Last  time.Time `bson:"last"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}

	for _, id := range medicationIDs {
		out[id] = medications.IntakeStats{}
	}
	for _, row := range rows {
		last := row.Last.UTC()
		out[row.ID] = medications.IntakeStats{TodayCount: row.Today, LastTakenAt: &last}
	}
	return out, nil
}
