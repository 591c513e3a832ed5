package report

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Anonymizer derives stable pseudonymous IDs from real user IDs. The same
// user always maps to the same anonymized ID under the same salt, which is
// what makes repeat-report correlation possible without storing identity.
type Anonymizer struct {
	salt string
}

// NewAnonymizer creates an anonymizer. The salt must be a deployment-level
// secret; changing it breaks correlation with previously stored reports.
func NewAnonymizer(salt string) *Anonymizer {
	if salt == "" {
		panic("report: anonymizer salt cannot be empty")
	}
	return &Anonymizer{salt: salt}
}

// AnonymizeUserID returns the first 16 hex chars of SHA-256(userID || salt).
func (a *Anonymizer) AnonymizeUserID(userID string) string {
	sum := sha256.Sum256([]byte(userID + a.salt))
	return hex.EncodeToString(sum[:])[:16]
}

// NewReportID generates an opaque report identifier of the form SAFE-<hex>.
// IDs carry no information about the reporter or the incident.
func NewReportID() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand failure is unrecoverable.
		panic(fmt.Sprintf("report: rand.Read: %v", err))
	}
	return "SAFE-" + hex.EncodeToString(buf[:])
}
