package model

import "time"

// User represents an account as stored in the `users` table.  Regular
// users authenticate every artifact request with APIKey; the key is issued
// once at sign-up and never rotated.
//
// Fields:
//  ID             – primary key identifier of the user.
//  Email          – unique email address, case-sensitive as stored.
//  HashedPassword – salted password digest, never the plain password.
//  APIKey         – opaque bearer credential.
//  Credit         – balance, default 0 (not used by any endpoint yet).
//  IsActive       – account flag, default true (not enforced yet).
//  CreatedAt      – timestamp of creation.
type User struct {
    ID             uint64    `json:"id"`
    Email          string    `json:"email"`
    HashedPassword string    `json:"-"`
    APIKey         string    `json:"api_key"`
    Credit         float64   `json:"credit"`
    IsActive       bool      `json:"is_active"`
    CreatedAt      time.Time `json:"created_at"`
}
