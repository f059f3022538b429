package postgres

import (
	"database/sql"
	"time"

	"lingocall/internal/domain"
)

// ContactRepo implements repository.ContactRepository
type ContactRepo struct {
	db *sql.DB
}

// NewContactRepo creates a new contact repository
func NewContactRepo(db *sql.DB) *ContactRepo {
	return &ContactRepo{db: db}
}

func scanContact(s rowScanner) (domain.Contact, error) {
	var c domain.Contact
	var lastCall sql.NullTime
	if err := s.Scan(&c.ID, &c.Name, &c.Language, &c.Persona, &lastCall); err != nil {
		return c, err
	}
	if lastCall.Valid {
		c.LastCallAt = &lastCall.Time
	}
	return c, nil
}

// ListContacts returns all contacts ordered by name
func (r *ContactRepo) ListContacts() ([]domain.Contact, error) {
	query := `
		SELECT id, name, language, persona, last_call_at
		FROM contacts
		ORDER BY name
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []domain.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}

	return contacts, rows.Err()
}

// GetContact returns a contact by id
func (r *ContactRepo) GetContact(id int64) (*domain.Contact, error) {
	query := `
		SELECT id, name, language, persona, last_call_at
		FROM contacts
		WHERE id = $1
	`
	c, err := scanContact(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// TouchLastCall records when the contact was last called
func (r *ContactRepo) TouchLastCall(id int64, at time.Time) error {
	query := `UPDATE contacts SET last_call_at = $2 WHERE id = $1`
	_, err := r.db.Exec(query, id, at)
	return err
}
