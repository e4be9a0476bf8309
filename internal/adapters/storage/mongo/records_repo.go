package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"pet-health-tracker/internal/domain/records"
	"pet-health-tracker/internal/ports/persistence"
)

// RecordRepo guarda cada Kind en su colección. Los campos propios van al
// nivel raíz del documento junto a los comunes.
type RecordRepo struct {
	db *mongo.Database
}

var _ records.Repository = (*RecordRepo)(nil)

var commonRecordKeys = map[string]bool{
	"_id": true, "pet_id": true, "date_time": true, "username": true, "comment": true,
}

func toRecordDoc(r records.Record) (bson.M, error) {
	id, err := oid(r.ID)
	if err != nil {
		return nil, err
	}
	doc := bson.M{}
	for k, v := range r.Fields {
		if !commonRecordKeys[k] {
			doc[k] = v
		}
	}
	doc["_id"] = id
	doc["pet_id"] = r.PetID
	doc["date_time"] = r.DateTime
	doc["username"] = r.Username
	doc["comment"] = r.Comment
	return doc, nil
}

func recordFromDoc(doc bson.M) records.Record {
	rec := records.Record{Fields: map[string]any{}}
	for k, v := range doc {
		switch k {
		case "_id":
			if o, ok := v.(primitive.ObjectID); ok {
				rec.ID = o.Hex()
			}
		case "pet_id":
			rec.PetID, _ = v.(string)
		case "date_time":
			if dt, ok := v.(primitive.DateTime); ok {
				rec.DateTime = dt.Time().UTC()
			}
		case "username":
			rec.Username, _ = v.(string)
		case "comment":
			rec.Comment, _ = v.(string)
		default:
			rec.Fields[k] = normalizeNumber(v)
		}
	}
	return rec
}

// normalizeNumber lleva enteros BSON a float64, como los devuelve JSON.
func normalizeNumber(v any) any {
	switch n := v.(type) {
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	}
	return v
}

func (r *RecordRepo) Create(ctx context.Context, collection string, rec records.Record) error {
	doc, err := toRecordDoc(rec)
	if err != nil {
		return err
	}
	_, err = r.db.Collection(collection).InsertOne(ctx, doc)
	return mapErr(err)
}

func (r *RecordRepo) GetByID(ctx context.Context, collection, id string) (records.Record, error) {
	o, err := oid(id)
	if err != nil {
		return records.Record{}, err
	}
	var doc bson.M
	if err := r.db.Collection(collection).FindOne(ctx, bson.M{"_id": o}).Decode(&doc); err != nil {
		return records.Record{}, mapErr(err)
	}
	return recordFromDoc(doc), nil
}

func (r *RecordRepo) ListByPet(ctx context.Context, collection, petID string, skip, limit int64) ([]records.Record, int64, error) {
	col := r.db.Collection(collection)
	filter := bson.M{"pet_id": petID}

	total, err := col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	cur, err := col.Find(ctx, filter, listWindow(bson.D{{Key: "date_time", Value: -1}, {Key: "_id", Value: -1}}, skip, limit))
	if err != nil {
		return nil, 0, err
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, err
	}

	out := make([]records.Record, 0, len(docs))
	for _, d := range docs {
		out = append(out, recordFromDoc(d))
	}
	return out, total, nil
}

func (r *RecordRepo) Update(ctx context.Context, collection string, rec records.Record) error {
	doc, err := toRecordDoc(rec)
	if err != nil {
		return err
	}
	res, err := r.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": doc["_id"]}, doc)
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (r *RecordRepo) Delete(ctx context.Context, collection, id string) (bool, error) {
	o, err := oid(id)
	if err != nil {
		return false, nil
	}
	res, err := r.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": o})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}
