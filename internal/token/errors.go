package token

import "errors"

var (
	ErrMintExists        = errors.New("mint already initialized")
	ErrMintNotFound      = errors.New("mint not found")
	ErrAccountNotFound   = errors.New("token account not found")
	ErrMintMismatch      = errors.New("token account belongs to another mint")
	ErrOwnerMismatch     = errors.New("authority does not own the account")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidSeeds      = errors.New("seeds do not derive the authority")
	ErrUnauthorized      = errors.New("authority did not sign")
)
