package repository

import (
	"database/sql"
	"fmt"

	"github.com/nicemins/connecto-backend/internal/models"
	"github.com/nicemins/connecto-backend/pkg/database"
)

type ProfileRepository struct {
	db *database.DB
}

func NewProfileRepository(db *database.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// FindByUserID 사용자 ID로 프로필 찾기
func (r *ProfileRepository) FindByUserID(userID string) (*models.Profile, error) {
	query := `
		SELECT id, user_id, nickname, profile_image_url, bio, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`

	profile := &models.Profile{}
	err := r.db.QueryRow(query, userID).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.Nickname,
		&profile.ProfileImageURL,
		&profile.Bio,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}

	return profile, nil
}
