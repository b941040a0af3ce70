// Package authcore is the credential and session-token security core of the
// meu bolso personal-finance tracker. It bundles password hashing, field
// encryption, secure token generation, password-strength scoring, and
// signed session-token issuance/validation/refresh/revocation behind one
// [Engine], built through [Builder].
//
// The surrounding application (transactions, budgets, goals, spreadsheet
// import) consumes only this surface; HTTP controllers and persistence stay
// outside. Engine methods are safe to call from multiple goroutines after
// [Builder.Build]; the only shared mutable state is the revocation store,
// which guards itself.
//
// The client-side counterpart, the retrying bearer gateway with
// single-flight token refresh, lives in the client subpackage and depends
// only on the token wire contract, never on Engine internals.
package authcore
