// Package token issues and validates the signed session tokens (access and
// refresh) that authorize calls into the finance API. Tokens are compact
// JWTs carrying sub, typ, iat, exp, iss, jti, and caller-supplied claims;
// validation checks well-formedness, signature, expiry, and revocation in
// that order and always reports a reason instead of failing loudly.
package token
