package types

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the layout used for birth dates in storage and on the CLI.
const DateLayout = "2006-01-02"

// Person is a phonebook entry. ID is assigned by the store on first save;
// zero means the person has never been persisted.
type Person struct {
	ID         int64     // Store-assigned identity, 0 while transient.
	Surname    string    // Family name (required).
	FirstName  string    // Given name (required).
	Patronymic string    // Optional.
	BirthDate  time.Time // Date only, normalized to UTC midnight.
	Phones     []*Phone  // Owned phones; order is not significant.
}

// Phone is a number owned by a Person. PersonID refers back to the owner and
// does not keep it alive.
type Phone struct {
	ID       int64  // Store-assigned identity, 0 while transient.
	Number   string // Phone number as entered (required).
	PersonID int64  // Owning person's ID, 0 until the owner is persisted.
}

// NewPerson builds a transient Person with BirthDate normalized to a date.
func NewPerson(surname, firstName, patronymic string, birthDate time.Time) *Person {
	return &Person{
		Surname:    surname,
		FirstName:  firstName,
		Patronymic: patronymic,
		BirthDate:  Date(birthDate),
	}
}

// NewPhone builds a transient Phone.
func NewPhone(number string) *Phone {
	return &Phone{Number: number}
}

// Date truncates t to midnight UTC of its calendar day.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a UTC date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// IsTransient reports whether the person has never been persisted.
func (p *Person) IsTransient() bool {
	return p.ID == 0
}

// AddPhone appends phone to the person and points its back-reference at the
// person. A nil phone is ignored.
func (p *Person) AddPhone(phone *Phone) {
	if phone == nil {
		return
	}
	phone.PersonID = p.ID
	p.Phones = append(p.Phones, phone)
}

// FullName returns "Surname FirstName Patronymic" without trailing blanks.
func (p *Person) FullName() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.Surname, p.FirstName, p.Patronymic} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// Validate checks the fields every store requires before writing.
func (p *Person) Validate() error {
	if strings.TrimSpace(p.Surname) == "" {
		return fmt.Errorf("%w: surname is empty", ErrInvalidName)
	}
	if strings.TrimSpace(p.FirstName) == "" {
		return fmt.Errorf("%w: first name is empty", ErrInvalidName)
	}
	for _, ph := range p.Phones {
		if ph == nil || strings.TrimSpace(ph.Number) == "" {
			return ErrInvalidNumber
		}
	}
	return nil
}

// WithPhones returns a shallow copy of p whose phone list is p's phones
// followed by phones, nils dropped. p itself is not modified; the Phone
// pointers are shared so IDs written to the copy's phones reach the caller's.
func (p *Person) WithPhones(phones ...*Phone) *Person {
	c := *p
	c.Phones = make([]*Phone, 0, len(p.Phones)+len(phones))
	for _, ph := range p.Phones {
		if ph != nil {
			c.Phones = append(c.Phones, ph)
		}
	}
	for _, ph := range phones {
		if ph != nil {
			c.Phones = append(c.Phones, ph)
		}
	}
	return &c
}

// Numbers returns the phone numbers in slice order.
func (p *Person) Numbers() []string {
	out := make([]string, 0, len(p.Phones))
	for _, ph := range p.Phones {
		out = append(out, ph.Number)
	}
	return out
}

// String renders the person on one line, e.g.
// "Person{id=1, Hlus Andrey Alexandrovich, born=1975-08-27, phones=[+7-902-204-80-09]}".
func (p *Person) String() string {
	return fmt.Sprintf("Person{id=%d, %s, born=%s, phones=[%s]}",
		p.ID, p.FullName(), p.BirthDate.Format(DateLayout), strings.Join(p.Numbers(), ", "))
}
