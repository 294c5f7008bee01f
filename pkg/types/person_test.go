package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPersonNormalizesBirthDate(t *testing.T) {
	loc := time.FixedZone("MSK", 3*60*60)
	p := NewPerson("Hlus", "Andrey", "Alexandrovich", time.Date(1975, 8, 27, 23, 30, 0, 0, loc))

	assert.True(t, p.IsTransient())
	assert.Equal(t, time.Date(1975, 8, 27, 0, 0, 0, 0, time.UTC), p.BirthDate)
}

func TestPersonAddPhone(t *testing.T) {
	p := NewPerson("Hlus", "Andrey", "Alexandrovich", time.Now())
	p.ID = 7

	p.AddPhone(NewPhone("+7-902-204-80-09"))
	p.AddPhone(nil)
	p.AddPhone(NewPhone("+7-953-445-28-05"))

	require.Len(t, p.Phones, 2)
	for _, ph := range p.Phones {
		assert.Equal(t, int64(7), ph.PersonID)
	}
	assert.Equal(t, []string{"+7-902-204-80-09", "+7-953-445-28-05"}, p.Numbers())
}

func TestPersonValidate(t *testing.T) {
	tests := []struct {
		name    string
		person  *Person
		wantErr error
	}{
		{
			name:   "valid person without phones",
			person: &Person{Surname: "Trubanov", FirstName: "Ivan"},
		},
		{
			name:    "blank surname",
			person:  &Person{Surname: "  ", FirstName: "Ivan"},
			wantErr: ErrInvalidName,
		},
		{
			name:    "empty first name",
			person:  &Person{Surname: "Trubanov"},
			wantErr: ErrInvalidName,
		},
		{
			name:    "empty phone number",
			person:  &Person{Surname: "Trubanov", FirstName: "Ivan", Phones: []*Phone{{Number: ""}}},
			wantErr: ErrInvalidNumber,
		},
		{
			name:    "nil phone",
			person:  &Person{Surname: "Trubanov", FirstName: "Ivan", Phones: []*Phone{nil}},
			wantErr: ErrInvalidNumber,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.person.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPersonWithPhonesLeavesReceiverUntouched(t *testing.T) {
	p := &Person{Surname: "Hlus", FirstName: "Andrey"}
	kept := NewPhone("+7-902-204-80-09")
	p.AddPhone(kept)

	added := NewPhone("+7-953-445-28-05")
	c := p.WithPhones(added, nil)

	require.Len(t, c.Phones, 2)
	assert.Same(t, kept, c.Phones[0])
	assert.Same(t, added, c.Phones[1])
	assert.Len(t, p.Phones, 1)

	c.Surname = "Other"
	assert.Equal(t, "Hlus", p.Surname)
}

func TestPersonString(t *testing.T) {
	p := NewPerson("Trubanov", "Ivan", "", time.Date(1975, 9, 6, 0, 0, 0, 0, time.UTC))
	p.ID = 2
	p.AddPhone(NewPhone("+7-906-283-62-11"))

	assert.Equal(t, "Person{id=2, Trubanov Ivan, born=1975-09-06, phones=[+7-906-283-62-11]}", p.String())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("1975-08-27")
	require.NoError(t, err)
	assert.Equal(t, time.Date(1975, 8, 27, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("27.08.1975")
	assert.Error(t, err)
}
