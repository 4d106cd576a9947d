package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type profileInput struct {
	FirstName string `validate:"required,max=100"`
	Sex       string `validate:"sex"`
	BirthDate string `validate:"notfuture"`
}

type blockInput struct {
	StartTime string `validate:"hhmm"`
	Source    string `validate:"alertsource"`
}

func TestCustomRules(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(profileInput{FirstName: "Ana", Sex: "F", BirthDate: "1990-04-01"}))
	assert.NoError(t, v.Validate(profileInput{FirstName: "Ana"}))

	err := v.Validate(profileInput{FirstName: "Ana", Sex: "Q"})
	assert.EqualError(t, err, "sex must be M, F or X")

	tomorrow := time.Now().AddDate(0, 0, 2).Format(time.DateOnly)
	err = v.Validate(profileInput{FirstName: "Ana", BirthDate: tomorrow})
	assert.EqualError(t, err, "birth_date cannot be in the future")

	err = v.Validate(profileInput{})
	assert.EqualError(t, err, "first_name is required")
}

func TestHHMMAndSource(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(blockInput{StartTime: "09:30", Source: "kiosk"}))
	assert.Error(t, v.Validate(blockInput{StartTime: "9:30"}))
	assert.Error(t, v.Validate(blockInput{StartTime: "24:00"}))
	assert.Error(t, v.Validate(blockInput{StartTime: "08:00", Source: "sms"}))
}

func TestRegisterGinValidationsIsIdempotent(t *testing.T) {
	assert.NoError(t, RegisterGinValidations())
	assert.NoError(t, RegisterGinValidations())
}
