// Package password provides argon2id password hashing with PHC-formatted
// encoded digests. The engine hashes before handing digests to the
// authoritative store; plaintext never crosses the [usercore.UserProvider]
// boundary.
package password
