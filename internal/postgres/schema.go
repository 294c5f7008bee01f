package postgres

const (
	createPersons = `CREATE TABLE IF NOT EXISTS persons (
    id BIGSERIAL PRIMARY KEY,
    surname TEXT NOT NULL,
    first_name TEXT NOT NULL,
    patronymic TEXT NOT NULL DEFAULT '',
    birth_date DATE NOT NULL
);`

	createPhones = `CREATE TABLE IF NOT EXISTS phones (
    id BIGSERIAL PRIMARY KEY,
    number TEXT NOT NULL,
    person_id BIGINT NOT NULL REFERENCES persons(id) ON DELETE CASCADE
);`

	idxPhonesPerson = `CREATE INDEX IF NOT EXISTS idx_phones_person_id ON phones(person_id);`
)

var schemaDDL = []string{
	createPersons,
	createPhones,
	idxPhonesPerson,
}

var dropDDL = []string{
	`DROP TABLE IF EXISTS phones;`,
	`DROP TABLE IF EXISTS persons;`,
}
