// Package auth stores the Weibo session cookie sent with status requests.
//
// Stores are tried in order: the system keyring (go-keyring), an AES-GCM
// encrypted file keyed with PBKDF2, and the read only WEIBODL_COOKIE
// environment variable.
package auth
