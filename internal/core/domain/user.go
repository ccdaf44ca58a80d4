package domain

type UserID string

type User struct {
	ID           UserID `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}
