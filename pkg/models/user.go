package models

// User is the account behind a credential.
type User struct {
	Username         string       `json:"username"`
	Email            string       `json:"email,omitempty"`
	StorageSpaceUsed Count        `json:"storage_space_used"`
	Subscription     Subscription `json:"subscription"`
}

// Subscription is the account plan.
type Subscription struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
