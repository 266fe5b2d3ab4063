package account

// ExternalChallenge son los parámetros de GET /external/challenge.
type ExternalChallenge struct {
	Provider  string
	ReturnURL string
	LoginHint string
}

// ExternalRedirect es el resultado del challenge: a dónde ir y el nonce que
// el controller deja en la cookie del browser.
type ExternalRedirect struct {
	URL   string
	Nonce string
}

// ExternalCallback son los parámetros de GET /external/callback.
type ExternalCallback struct {
	Code             string
	State            string
	// Nonce leído de la cookie puesta en el challenge.
	Nonce            string
	Error            string
	ErrorDescription string
}
