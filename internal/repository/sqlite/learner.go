package sqlite

import (
	"database/sql"
)

// LearnerRepo implements repository.LearnerRepository
type LearnerRepo struct {
	db *sql.DB
}

// NewLearnerRepo creates a new learner repository
func NewLearnerRepo(db *sql.DB) *LearnerRepo {
	return &LearnerRepo{db: db}
}

// IsAuthorized checks if learner is authorized
func (r *LearnerRepo) IsAuthorized(userID int64) (bool, error) {
	var authorized bool
	err := r.db.QueryRow(`SELECT authorized FROM learners WHERE user_id = ?`, userID).Scan(&authorized)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return authorized, nil
}

// AuthorizeLearner marks learner as authorized
func (r *LearnerRepo) AuthorizeLearner(userID int64) error {
	query := `
		INSERT INTO learners (user_id, authorized)
		VALUES (?, 1)
		ON CONFLICT (user_id)
		DO UPDATE SET authorized = 1
	`
	_, err := r.db.Exec(query, userID)
	return err
}

// EnsureLearnerExists creates learner if not exists
func (r *LearnerRepo) EnsureLearnerExists(userID int64) error {
	_, err := r.db.Exec(`INSERT INTO learners (user_id, authorized) VALUES (?, 0) ON CONFLICT (user_id) DO NOTHING`, userID)
	return err
}

// NativeLanguage returns the learner's native language, or "" if not set
func (r *LearnerRepo) NativeLanguage(userID int64) (string, error) {
	var language string
	err := r.db.QueryRow(`SELECT native_language FROM learners WHERE user_id = ?`, userID).Scan(&language)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return language, nil
}

// SetNativeLanguage stores the learner's native language
func (r *LearnerRepo) SetNativeLanguage(userID int64, language string) error {
	_, err := r.db.Exec(`UPDATE learners SET native_language = ? WHERE user_id = ?`, language, userID)
	return err
}
