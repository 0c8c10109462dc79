package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TimestampLayout is the layout used for createdAt/updatedAt in API responses.
const TimestampLayout = "2006-01-02 15:04"

// Gender values accepted for User.Gender.
const (
	GenderFemale = "Female"
	GenderMale   = "Male"
)

// User is the only resource exposed by the API.
type User struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	Name          string          `json:"name" gorm:"size:191;not null"`
	Email         string          `json:"email" gorm:"uniqueIndex;size:191;not null"`
	PasswordHash  string          `json:"-" gorm:"column:password;size:255;not null"` // Never expose in JSON
	RememberToken *string         `json:"-" gorm:"size:100"`
	Age           decimal.Decimal `json:"age" gorm:"type:decimal(8,2);not null"`
	Gender        string          `json:"gender" gorm:"size:10;not null"`
	Address       string          `json:"address" gorm:"type:text;not null"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// userJSON is the wire shape of a User.
type userJSON struct {
	ID        uint            `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Age       json.RawMessage `json:"age"`
	Gender    string          `json:"gender"`
	Address   string          `json:"address"`
	CreatedAt string          `json:"createdAt"`
	UpdatedAt string          `json:"updatedAt"`
}

// MarshalJSON renders age as a JSON number and timestamps with TimestampLayout.
func (u User) MarshalJSON() ([]byte, error) {
	return json.Marshal(userJSON{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Age:       json.RawMessage(u.Age.String()),
		Gender:    u.Gender,
		Address:   u.Address,
		CreatedAt: formatTimestamp(u.CreatedAt),
		UpdatedAt: formatTimestamp(u.UpdatedAt),
	})
}

// UnmarshalJSON is the inverse of MarshalJSON. It is used when reading users
// back from the cache, so credentials are never populated.
func (u *User) UnmarshalJSON(data []byte) error {
	var raw userJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	age, err := decimal.NewFromString(string(raw.Age))
	if err != nil {
		return fmt.Errorf("parse age: %w", err)
	}
	createdAt, err := parseTimestamp(raw.CreatedAt)
	if err != nil {
		return fmt.Errorf("parse createdAt: %w", err)
	}
	updatedAt, err := parseTimestamp(raw.UpdatedAt)
	if err != nil {
		return fmt.Errorf("parse updatedAt: %w", err)
	}

	*u = User{
		ID:        raw.ID,
		Name:      raw.Name,
		Email:     raw.Email,
		Age:       age,
		Gender:    raw.Gender,
		Address:   raw.Address,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
	return nil
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(TimestampLayout, s, time.Local)
}
