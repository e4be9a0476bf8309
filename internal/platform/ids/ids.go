// Package ids genera y valida identificadores de 24 dígitos hex (ObjectID).
// Se usan en todos los drivers de storage para que las URLs sean iguales.
package ids

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func New() string {
	return primitive.NewObjectID().Hex()
}

func Valid(id string) bool {
	id = strings.TrimSpace(id)
	if len(id) != 24 {
		return false
	}
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}
