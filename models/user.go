package models

import (
	"time"

	"amora_server/utils"
)

// MinimumAge is the youngest age a profile may declare
const MinimumAge = 18

// User is the profile document stored in the Users table. The id is the
// auth provider UID.
type User struct {
	ID           string    `dynamodbav:"id" json:"id"`
	Email        string    `dynamodbav:"email,omitempty" json:"email,omitempty"`
	Name         string    `dynamodbav:"name,omitempty" json:"name,omitempty"`
	Bio          string    `dynamodbav:"bio,omitempty" json:"bio,omitempty"`
	Gender       string    `dynamodbav:"gender,omitempty" json:"gender,omitempty"`
	InterestedIn string    `dynamodbav:"interestedIn,omitempty" json:"interestedIn,omitempty"`
	BirthDate    time.Time `dynamodbav:"birthDate,omitempty" json:"birthDate,omitempty"`
	Photos       []string  `dynamodbav:"photos,omitempty" json:"photos,omitempty"`
	Interests    []string  `dynamodbav:"interests,omitempty" json:"interests,omitempty"`
	Latitude     float64   `dynamodbav:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude    float64   `dynamodbav:"longitude,omitempty" json:"longitude,omitempty"`
	HasLocation  bool      `dynamodbav:"hasLocation" json:"hasLocation"`
	IsAI         bool      `dynamodbav:"isAI" json:"isAI"`
	LastActive   time.Time `dynamodbav:"lastActive,omitempty" json:"lastActive,omitempty"`
	CreatedAt    time.Time `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `dynamodbav:"updatedAt" json:"updatedAt"`

	DistanceKm float64 `dynamodbav:"-" json:"distanceKm,omitempty"` // computed, not stored
}

// Age returns the age in whole years at now, or 0 when no birth date is set.
func (u *User) Age(now time.Time) int {
	if u.BirthDate.IsZero() {
		return 0
	}
	return AgeAt(u.BirthDate, now)
}

// Located reports whether the profile carries a usable position.
func (u *User) Located() bool {
	return u.HasLocation
}

// PrimaryPhoto returns the first photo URL, or "".
func (u *User) PrimaryPhoto() string {
	if len(u.Photos) == 0 {
		return ""
	}
	return u.Photos[0]
}

// DistanceTo returns the great-circle distance in km to other. ok is false
// when either side has no location.
func (u *User) DistanceTo(other *User) (km float64, ok bool) {
	if !u.Located() || !other.Located() {
		return 0, false
	}
	return utils.CalculateDistance(u.Latitude, u.Longitude, other.Latitude, other.Longitude), true
}

// MemberSince renders the account creation date.
func (u *User) MemberSince() string {
	return utils.FormatDate(u.CreatedAt)
}

// AgeAt returns the number of full years between birth and now.
func AgeAt(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

// PublicProfile is the part of a User shown to other users.
type PublicProfile struct {
	ID         string   `json:"id"`
	Name       string   `json:"name,omitempty"`
	Age        int      `json:"age,omitempty"`
	Bio        string   `json:"bio,omitempty"`
	Gender     string   `json:"gender,omitempty"`
	Photos     []string `json:"photos,omitempty"`
	Interests  []string `json:"interests,omitempty"`
	IsAI       bool     `json:"isAI,omitempty"`
	DistanceKm float64  `json:"distanceKm,omitempty"`
}

// Public strips private fields such as email and exact coordinates.
func (u *User) Public(now time.Time) PublicProfile {
	return PublicProfile{
		ID:         u.ID,
		Name:       u.Name,
		Age:        u.Age(now),
		Bio:        u.Bio,
		Gender:     u.Gender,
		Photos:     u.Photos,
		Interests:  u.Interests,
		IsAI:       u.IsAI,
		DistanceKm: u.DistanceKm,
	}
}
