package sqlite

// Schema DDL. Phones reference persons with ON DELETE CASCADE.
const (
	createPersons = `CREATE TABLE IF NOT EXISTS persons (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    surname TEXT NOT NULL,
    first_name TEXT NOT NULL,
    patronymic TEXT NOT NULL DEFAULT '',
    birth_date TEXT NOT NULL
);`

	createPhones = `CREATE TABLE IF NOT EXISTS phones (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    number TEXT NOT NULL,
    person_id INTEGER NOT NULL,
    FOREIGN KEY (person_id) REFERENCES persons(id) ON DELETE CASCADE
);`

	idxPhonesPerson = `CREATE INDEX IF NOT EXISTS idx_phones_person_id ON phones(person_id);`
)

// schemaDDL lists all CREATE statements in dependency order.
var schemaDDL = []string{
	createPersons,
	createPhones,
	idxPhonesPerson,
}

// dropDDL lists the DROP statements used by the create schema mode, children
// first.
var dropDDL = []string{
	`DROP TABLE IF EXISTS phones;`,
	`DROP TABLE IF EXISTS persons;`,
}
