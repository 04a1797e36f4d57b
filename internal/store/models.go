package store

import "time"

// Voice is a named reference clip used to condition synthesis.
type Voice struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	Name       string    `json:"name" gorm:"not null"`
	AudioPath  *string   `json:"audio_path"`
	Transcript *string   `json:"transcript"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName pins the table name.
func (Voice) TableName() string { return "voices" }

// Generation records one completed synthesis request.
//
// VoiceID is a soft reference: generations outlive the voices they were made
// with, so VoiceName keeps a copy of the name taken at creation time.
type Generation struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	VoiceID   *string   `json:"voice_id"`
	VoiceName *string   `json:"voice_name"`
	Text      string    `json:"text" gorm:"not null"`
	AudioPath *string   `json:"audio_path"`
	Model     string    `json:"model" gorm:"default:s1"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName pins the table name.
func (Generation) TableName() string { return "generations" }

// Setting is a single key/value row.
type Setting struct {
	Key   string `gorm:"primaryKey"`
	Value string `gorm:"not null"`
}

// TableName pins the table name.
func (Setting) TableName() string { return "settings" }
