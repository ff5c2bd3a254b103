package models

// User ist die angemeldete Identität einer Sitzung.
type User struct {
	Login     string `json:"login" yaml:"login"`
	AvatarURL string `json:"avatar_url,omitempty" yaml:"avatar_url,omitempty"`
}
