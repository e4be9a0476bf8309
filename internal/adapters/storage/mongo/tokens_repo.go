package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"pet-health-tracker/internal/domain/sessions"
)

// TokenRepo guarda refresh tokens. El índice TTL sobre expires_at limpia los
// vencidos.
type TokenRepo struct {
	col *mongo.Collection
}

var _ sessions.Repository = (*TokenRepo)(nil)

type tokenDoc struct {
	Token     string    `bson:"token"`
	Username  string    `bson:"username"`
	CreatedAt time.Time `bson:"created_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}

func (r *TokenRepo) Save(ctx context.Context, t sessions.RefreshToken) error {
	_, err := r.col.InsertOne(ctx, tokenDoc{
		Token:     t.Token,
		Username:  t.Username,
		CreatedAt: t.CreatedAt,
		ExpiresAt: t.ExpiresAt,
	})
	return mapErr(err)
}

func (r *TokenRepo) Find(ctx context.Context, token string) (sessions.RefreshToken, error) {
	var doc tokenDoc
	if err := r.col.FindOne(ctx, bson.M{"token": token}).Decode(&doc); err != nil {
		return sessions.RefreshToken{}, mapErr(err)
	}
	return sessions.RefreshToken{
		Token:     doc.Token,
		Username:  doc.Username,
		CreatedAt: doc.CreatedAt.UTC(),
		ExpiresAt: doc.ExpiresAt.UTC(),
	}, nil
}

func (r *TokenRepo) Delete(ctx context.Context, token string) (bool, error) {
	res, err := r.col.DeleteOne(ctx, bson.M{"token": token})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *TokenRepo) DeleteByUser(ctx context.Context, username string) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"username": username})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
