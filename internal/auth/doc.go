// Package auth provides authentication for the IRLogic Core API.
//
// It implements a deliberately small two-tier model:
//   - Argon2id password hashing (OWASP 2025 recommendation)
//   - JWT access tokens (HS256, short TTL, signature-only validation)
//
// There is no user database. The admin account is defined in config.yaml
// as a username plus an Argon2id hash, which suits a single-operator
// appliance. Viewer tokens can be minted for read-only dashboard access.
package auth
