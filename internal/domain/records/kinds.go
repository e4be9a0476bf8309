package records

import (
	"encoding/json"
	"errors"

	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/platform/validate"
)

// Campos propios de cada tipo de registro. Los comunes (pet_id, date_time,
// username, comment) viven en Record.

type AsthmaFields struct {
	Duration   string `json:"duration" validate:"required,max=100"`
	Reason     string `json:"reason" validate:"max=500"`
	Inhalation bool   `json:"inhalation"`
}

type DefecationFields struct {
	StoolType string `json:"stool_type" validate:"required,max=100"`
	Color     string `json:"color" validate:"max=100"`
	Food      string `json:"food" validate:"max=200"`
}

type LitterFields struct{}

type WeightFields struct {
	Weight float64 `json:"weight" validate:"required,gt=0"` // kg
	Food   string  `json:"food" validate:"max=200"`
}

type FeedingFields struct {
	FoodWeight float64 `json:"food_weight" validate:"required,gt=0"` // gramos
}

type EyeDropsFields struct {
	DropsType string `json:"drops_type" validate:"required,max=100"`
}

type ToothBrushingFields struct {
	BrushingType string `json:"brushing_type" validate:"required,max=100"`
}

type EarCleaningFields struct {
	CleaningType string `json:"cleaning_type" validate:"required,max=100"`
}

// Kind describe un tipo de registro: ruta, colección y cómo validar sus campos.
type Kind struct {
	Name       string // slug de ruta: /api/{Name}
	Collection string
	Title      string
	Fields     []string // columnas propias, en orden (export)

	build func(base map[string]any, raw []byte) (map[string]any, error)
}

var (
	Asthma        = newKind[AsthmaFields]("asthma", "asthma_attacks", "Asthma attacks", "duration", "reason", "inhalation")
	Defecation    = newKind[DefecationFields]("defecation", "defecations", "Defecations", "stool_type", "color", "food")
	Litter        = newKind[LitterFields]("litter", "litter_changes", "Litter changes")
	Weight        = newKind[WeightFields]("weight", "weights", "Weights", "weight", "food")
	Feeding       = newKind[FeedingFields]("feeding", "feedings", "Feedings", "food_weight")
	EyeDrops      = newKind[EyeDropsFields]("eye_drops", "eye_drops", "Eye drops", "drops_type")
	ToothBrushing = newKind[ToothBrushingFields]("tooth_brushing", "tooth_brushing", "Tooth brushing", "brushing_type")
	EarCleaning   = newKind[EarCleaningFields]("ear_cleaning", "ear_cleaning", "Ear cleaning", "cleaning_type")
)

func All() []Kind {
	return []Kind{Asthma, Defecation, Litter, Weight, Feeding, EyeDrops, ToothBrushing, EarCleaning}
}

func ByName(name string) (Kind, bool) {
	for _, k := range All() {
		if k.Name == name {
			return k, true
		}
	}
	return Kind{}, false
}

// Collections son las colecciones de registros que dependen de pet_id.
func Collections() []string {
	out := make([]string, 0, len(All()))
	for _, k := range All() {
		out = append(out, k.Collection)
	}
	return out
}

// BuildFields aplica raw sobre base (nil en create) y valida el resultado.
// Claves desconocidas se ignoran; así el mismo body trae pet_id/date/time.
func (k Kind) BuildFields(base map[string]any, raw []byte) (map[string]any, error) {
	return k.build(base, raw)
}

func newKind[T any](name, collection, title string, fields ...string) Kind {
	return Kind{
		Name:       name,
		Collection: collection,
		Title:      title,
		Fields:     fields,
		build:      buildFields[T],
	}
}

func buildFields[T any](base map[string]any, raw []byte) (map[string]any, error) {
	var f T
	if len(base) > 0 {
		b, err := json.Marshal(base)
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, err)
		}
		if err := json.Unmarshal(b, &f); err != nil {
			return nil, apperr.Wrap(apperr.Internal, err)
		}
	}

	if err := json.Unmarshal(raw, &f); err != nil {
		var te *json.UnmarshalTypeError
		if errors.As(err, &te) && te.Field != "" {
			return nil, apperr.New(apperr.ValidationError, te.Field+" has an invalid type")
		}
		return nil, apperr.New(apperr.BadRequest, "invalid json")
	}

	if err := validate.Struct(f); err != nil {
		return nil, err
	}

	b, err := json.Marshal(f)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, apperr.Wrap(apperr.Internal, err)
	}
	return out, nil
}
