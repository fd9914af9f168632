// Package auth provides request signers for the store transport.
//
// A signer turns credentials into one Authorization header value:
//
//   - NullSigner leaves requests unsigned
//   - BasicSigner sends a username and password
//   - TokenSigner sends a bearer token from an oauth2.TokenSource,
//     refreshing it through the source when it expires
//
// NewSigner picks one from configured credentials.
package auth
