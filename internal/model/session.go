package model

// Session is the local identity of the active mailbox. At most one
// session exists at a time; it survives restarts via the system
// keyring and is destroyed only by an explicit logout.
type Session struct {
	// Address is the full mailbox address, localpart@domain.
	Address string `json:"address"`

	// Password is the plaintext account password. The provider requires
	// it for re-authentication, so it is stored alongside the token.
	Password string `json:"password"`

	// Token is the opaque bearer credential issued by the provider.
	// Validity is entirely provider-determined; there is no local
	// expiry tracking.
	Token string `json:"token"`
}
