package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pet-health-tracker/internal/domain/pets"
	"pet-health-tracker/internal/ports/persistence"
)

type PetRepo struct {
	col *mongo.Collection
}

var _ pets.Repository = (*PetRepo)(nil)

type petDoc struct {
	ID            primitive.ObjectID `bson:"_id"`
	Owner         string             `bson:"owner"`
	Name          string             `bson:"name"`
	Species       string             `bson:"species"`
	Breed         string             `bson:"breed"`
	Gender        string             `bson:"gender"`
	BirthDate     *time.Time         `bson:"birth_date"`
	IsNeutered    bool               `bson:"is_neutered"`
	SharedWith    []string           `bson:"shared_with"`
	PhotoRef      string             `bson:"photo_ref,omitempty"`
	TilesSettings bson.M             `bson:"tiles_settings,omitempty"`
	CreatedAt     time.Time          `bson:"created_at"`
}

func toPetDoc(p pets.Pet) (petDoc, error) {
	id, err := oid(p.ID)
	if err != nil {
		return petDoc{}, err
	}
	shared := p.SharedWith
	if shared == nil {
		shared = []string{}
	}
	return petDoc{
		ID:            id,
		Owner:         p.Owner,
		Name:          p.Name,
		Species:       string(p.Species),
		Breed:         p.Breed,
		Gender:        string(p.Gender),
		BirthDate:     p.BirthDate,
		IsNeutered:    p.IsNeutered,
		SharedWith:    shared,
		PhotoRef:      p.PhotoRef,
		TilesSettings: bson.M(p.TilesSettings),
		CreatedAt:     p.CreatedAt,
	}, nil
}

func (d petDoc) toDomain() pets.Pet {
	var bd *time.Time
	if d.BirthDate != nil {
		t := d.BirthDate.UTC()
		bd = &t
	}
	return pets.Pet{
		ID:            d.ID.Hex(),
		Owner:         d.Owner,
		Name:          d.Name,
		Species:       pets.Species(d.Species),
		Breed:         d.Breed,
		Gender:        pets.Gender(d.Gender),
		BirthDate:     bd,
		IsNeutered:    d.IsNeutered,
		SharedWith:    d.SharedWith,
		PhotoRef:      d.PhotoRef,
		TilesSettings: map[string]any(d.TilesSettings),
		CreatedAt:     d.CreatedAt.UTC(),
	}
}

func (r *PetRepo) Create(ctx context.Context, p pets.Pet) error {
	doc, err := toPetDoc(p)
	if err != nil {
		return err
	}
	_, err = r.col.InsertOne(ctx, doc)
	return mapErr(err)
}

func (r *PetRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	o, err := oid(id)
	if err != nil {
		return pets.Pet{}, err
	}
	var doc petDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": o}).Decode(&doc); err != nil {
		return pets.Pet{}, mapErr(err)
	}
	return doc.toDomain(), nil
}

func (r *PetRepo) ListAccessible(ctx context.Context, username string) ([]pets.Pet, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"owner": username},
		bson.M{"shared_with": username},
	}}
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []petDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]pets.Pet, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *PetRepo) Update(ctx context.Context, p pets.Pet) error {
	doc, err := toPetDoc(p)
	if err != nil {
		return err
	}
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (r *PetRepo) AddSharedUser(ctx context.Context, petID, username string) error {
	return r.updateOne(ctx, petID, bson.M{"$addToSet": bson.M{"shared_with": username}})
}

func (r *PetRepo) RemoveSharedUser(ctx context.Context, petID, username string) (bool, error) {
	o, err := oid(petID)
	if err != nil {
		return false, err
	}
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": o, "shared_with": username},
		bson.M{"$pull": bson.M{"shared_with": username}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (r *PetRepo) SetPhoto(ctx context.Context, petID, ref string) error {
	if ref == "" {
		return r.updateOne(ctx, petID, bson.M{"$unset": bson.M{"photo_ref": ""}})
	}
	return r.updateOne(ctx, petID, bson.M{"$set": bson.M{"photo_ref": ref}})
}

func (r *PetRepo) updateOne(ctx context.Context, petID string, update bson.M) error {
	o, err := oid(petID)
	if err != nil {
		return err
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": o}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
