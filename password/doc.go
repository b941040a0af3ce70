// Package password provides argon2id password hashing and verification
// behind a single port. Records are PHC-encoded, so a stored hash carries
// everything verification needs; the same work-factor configuration drives
// both hashing and rehash detection.
package password
