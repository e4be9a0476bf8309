package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pet-health-tracker/internal/domain/users"
	"pet-health-tracker/internal/ports/persistence"
)

type UserRepo struct {
	col *mongo.Collection
}

var _ users.Repository = (*UserRepo)(nil)

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id"`
	Username     string             `bson:"username"`
	PasswordHash string             `bson:"password_hash"`
	FullName     string             `bson:"full_name"`
	Email        string             `bson:"email"`
	IsActive     bool               `bson:"is_active"`
	IsAdmin      bool               `bson:"is_admin"`
	CreatedBy    string             `bson:"created_by"`
	CreatedAt    time.Time          `bson:"created_at"`
}

func (d userDoc) toDomain() users.User {
	return users.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		FullName:     d.FullName,
		Email:        d.Email,
		IsActive:     d.IsActive,
		IsAdmin:      d.IsAdmin,
		CreatedBy:    d.CreatedBy,
		CreatedAt:    d.CreatedAt.UTC(),
	}
}

func (r *UserRepo) Create(ctx context.Context, u users.User) error {
	id, err := oid(u.ID)
	if err != nil {
		return err
	}
	_, err = r.col.InsertOne(ctx, userDoc{
		ID:           id,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		FullName:     u.FullName,
		Email:        u.Email,
		IsActive:     u.IsActive,
		IsAdmin:      u.IsAdmin,
		CreatedBy:    u.CreatedBy,
		CreatedAt:    u.CreatedAt,
	})
	return mapErr(err)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (users.User, error) {
	var doc userDoc
	if err := r.col.FindOne(ctx, bson.M{"username": username}).Decode(&doc); err != nil {
		return users.User{}, mapErr(err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepo) List(ctx context.Context) ([]users.User, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "username", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]users.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *UserRepo) Update(ctx context.Context, u users.User) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"username": u.Username}, bson.M{"$set": bson.M{
		"password_hash": u.PasswordHash,
		"full_name":     u.FullName,
		"email":         u.Email,
		"is_active":     u.IsActive,
		"is_admin":      u.IsAdmin,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (r *UserRepo) Delete(ctx context.Context, username string) (bool, error) {
	res, err := r.col.DeleteOne(ctx, bson.M{"username": username})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}
