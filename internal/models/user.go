package models

import "time"

// User is the profile kept for an identity-provider subject. Documents refer to
// it by Sub, never by the Mongo ID.
type User struct {
	ID          string    `bson:"_id,omitempty" json:"-"`
	Sub         string    `bson:"sub" json:"id"`
	Email       string    `bson:"email" json:"email"`
	Name        string    `bson:"name" json:"name"`
	AvatarURL   string    `bson:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`
	Provider    string    `bson:"provider" json:"provider"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	LastLoginAt time.Time `bson:"lastLoginAt" json:"lastLoginAt"`
}
