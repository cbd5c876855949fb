// Package service implements the hash chain of the audit ledger.
package service

import (
	"bytes"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	auditDomain "github.com/allisson/cedms/internal/audit/domain"
)

// GenesisHash seeds the chain: the first entry is hashed against it.
const GenesisHash = "0"

const replacementChar = "\uFFFD"

// chainPayload mirrors Entry without its hash. The JSON field order defines the
// canonical serialization, and map keys in Metadata are sorted by encoding/json.
type chainPayload struct {
	Timestamp string              `json:"timestamp"`
	Action    auditDomain.Action  `json:"action"`
	UserID    string              `json:"userId"`
	Username  string              `json:"username"`
	Role      string              `json:"role"`
	IP        string              `json:"ip"`
	Metadata  map[string]any      `json:"metadata"`
	Status    auditDomain.Outcome `json:"status"`
}

// ComputeHash returns hex(SHA-256(JSON(entry without hash) || previousHash)).
func ComputeHash(entry *auditDomain.Entry, previousHash string) (string, error) {
	payload, err := json.Marshal(chainPayload{
		Timestamp: entry.Timestamp,
		Action:    entry.Action,
		UserID:    entry.UserID,
		Username:  entry.Username,
		Role:      entry.Role,
		IP:        entry.IP,
		Metadata:  entry.Metadata,
		Status:    entry.Status,
	})
	if err != nil {
		return "", fmt.Errorf("failed to serialize audit entry: %w", err)
	}

	h := sha256.New()
	h.Write(payload)
	h.Write([]byte(previousHash))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Canonicalize rewrites entry into the form it takes after a storage round
// trip: string fields hold valid UTF-8 and Metadata holds only decoded JSON
// values (json.Number, map[string]any, []any), matching what the repository
// reads back.
func Canonicalize(entry *auditDomain.Entry) error {
	for _, field := range []*string{&entry.Timestamp, &entry.UserID, &entry.Username, &entry.Role, &entry.IP} {
		*field = strings.ToValidUTF8(*field, replacementChar)
	}
	entry.Action = auditDomain.Action(strings.ToValidUTF8(string(entry.Action), replacementChar))
	entry.Status = auditDomain.Outcome(strings.ToValidUTF8(string(entry.Status), replacementChar))

	if entry.Metadata == nil {
		return nil
	}
	raw, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("failed to serialize audit metadata: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var metadata map[string]any
	if err := dec.Decode(&metadata); err != nil {
		return fmt.Errorf("failed to normalize audit metadata: %w", err)
	}
	entry.Metadata = metadata
	return nil
}

// Seal canonicalizes entry, then computes and stores its hash linked to
// previousHash.
func Seal(entry *auditDomain.Entry, previousHash string) error {
	if err := Canonicalize(entry); err != nil {
		return err
	}
	hash, err := ComputeHash(entry, previousHash)
	if err != nil {
		return err
	}
	entry.Hash = hash
	return nil
}

// Verify replays entries in append order from GenesisHash and reports the first
// index whose stored hash differs from the recomputed one. Recomputation always
// chains on the recomputed hash, never on the stored one, so a forged hash on an
// edited entry still breaks its successor.
func Verify(entries []*auditDomain.Entry) auditDomain.IntegrityReport {
	report := auditDomain.IntegrityReport{
		Valid:         true,
		TamperedIndex: auditDomain.NoTamperedIndex,
		Total:         len(entries),
	}

	previous := GenesisHash
	for i, entry := range entries {
		expected, err := ComputeHash(entry, previous)
		if err != nil || subtle.ConstantTimeCompare([]byte(expected), []byte(entry.Hash)) != 1 {
			report.Valid = false
			report.TamperedIndex = i
			return report
		}
		previous = expected
	}
	return report
}
