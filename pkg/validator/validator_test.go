package validator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-retail-ws/pkg/apperror"
)

type line struct {
	ProductID uuid.UUID `json:"product_id" validate:"uuid_required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

type payload struct {
	Reason string `json:"return_reason" validate:"required"`
	Status string `json:"status" validate:"omitempty,oneof=APPROVED REJECTED"`
	Items  []line `json:"items" validate:"required,min=1,dive"`
}

func TestValidateStructPasses(t *testing.T) {
	err := ValidateStruct(&payload{
		Reason: "damaged",
		Items:  []line{{ProductID: uuid.New(), Quantity: 1}},
	})
	assert.NoError(t, err)
}

func TestValidateStructUsesJSONNames(t *testing.T) {
	err := ValidateStruct(&payload{
		Status: "MAYBE",
		Items:  []line{{Quantity: 0}},
	})
	require.Error(t, err)

	typed := apperror.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, apperror.CodeValidation, typed.Code())

	fields, ok := typed.Details().([]FieldError)
	require.True(t, ok)

	got := map[string]string{}
	for _, f := range fields {
		got[f.Field] = f.Tag
	}
	assert.Equal(t, "required", got["return_reason"])
	assert.Equal(t, "oneof", got["status"])
	assert.Equal(t, "uuid_required", got["items[0].product_id"])
	assert.Equal(t, "required", got["items[0].quantity"])
	assert.Equal(t, "return_reason is required", typed.Message())
}

func TestValidateStructRejectsEmptyItems(t *testing.T) {
	err := ValidateStruct(&payload{Reason: "x"})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}
