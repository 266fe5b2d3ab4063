package account

// RegisterPrompt es lo que muestra GET /register (y el re-render tras un error).
type RegisterPrompt struct {
	ReturnURL         string   `json:"return_url,omitempty"`
	Email             string   `json:"email,omitempty"`
	PasswordMinLength int      `json:"password_min_length"`
	Errors            []string `json:"errors,omitempty"`
}

// RegisterInput es el POST /register ya parseado. El email es también el username.
type RegisterInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	ReturnURL       string
}
