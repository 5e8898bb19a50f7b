package models

type User struct {
	ID    string `json:"user_id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Token string `json:"token"`
}
