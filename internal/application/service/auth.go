package service

import "crypto/subtle"

// VerifyAdminPIN compares a supplied PIN against the configured one in
// constant time. An empty supplied PIN never matches.
func VerifyAdminPIN(supplied, configured string) bool {
	if supplied == "" || configured == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(configured)) == 1
}
