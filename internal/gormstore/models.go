package gormstore

import (
	"time"

	"github.com/mesh-intelligence/phonebook/pkg/types"
)

// personRow maps the persons table.
type personRow struct {
	ID         int64      `gorm:"primaryKey;autoIncrement"`
	Surname    string     `gorm:"not null"`
	FirstName  string     `gorm:"not null"`
	Patronymic string     `gorm:"not null;default:''"`
	BirthDate  time.Time  `gorm:"type:date;not null"`
	Phones     []phoneRow `gorm:"foreignKey:PersonID;constraint:OnDelete:CASCADE"`
}

// TableName explicitly sets the table name for GORM.
func (personRow) TableName() string {
	return "persons"
}

// phoneRow maps the phones table.
type phoneRow struct {
	ID       int64  `gorm:"primaryKey;autoIncrement"`
	Number   string `gorm:"not null"`
	PersonID int64  `gorm:"not null;index:idx_phones_person_id"`
}

// TableName explicitly sets the table name for GORM.
func (phoneRow) TableName() string {
	return "phones"
}

func fromPerson(p *types.Person) personRow {
	return personRow{
		ID:         p.ID,
		Surname:    p.Surname,
		FirstName:  p.FirstName,
		Patronymic: p.Patronymic,
		BirthDate:  types.Date(p.BirthDate),
	}
}

func (r personRow) toPerson() *types.Person {
	p := &types.Person{
		ID:         r.ID,
		Surname:    r.Surname,
		FirstName:  r.FirstName,
		Patronymic: r.Patronymic,
		BirthDate:  types.Date(r.BirthDate),
		Phones:     make([]*types.Phone, 0, len(r.Phones)),
	}
	for _, ph := range r.Phones {
		p.Phones = append(p.Phones, ph.toPhone())
	}
	return p
}

func (r phoneRow) toPhone() *types.Phone {
	return &types.Phone{ID: r.ID, Number: r.Number, PersonID: r.PersonID}
}
