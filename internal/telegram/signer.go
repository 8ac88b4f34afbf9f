package telegram

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const (
	callbackPrefix = "rm"
	macSize        = 8
)

// ErrBadCallback is returned for callback data that was not produced by the
// Signer for the user presenting it.
var ErrBadCallback = errors.New("invalid callback data")

// Signer binds a reminder selection to the user it was offered to.
// Callback data has the form rm:<reminder id>:<mac>.
type Signer struct {
	key [blake2b.Size256]byte
}

// NewSigner derives the MAC key from secret.
func NewSigner(secret []byte) *Signer {
	return &Signer{key: blake2b.Sum256(secret)}
}

// Encode returns the callback data for reminderID shown to userID.
func (s *Signer) Encode(userID, reminderID int64) string {
	return fmt.Sprintf("%s:%d:%s", callbackPrefix, reminderID, hex.EncodeToString(s.mac(userID, reminderID)))
}

// Decode verifies data for userID and returns the reminder id it carries.
func (s *Signer) Decode(userID int64, data string) (int64, error) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 || parts[0] != callbackPrefix {
		return 0, ErrBadCallback
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, ErrBadCallback
	}
	sum, err := hex.DecodeString(parts[2])
	if err != nil {
		return 0, ErrBadCallback
	}
	if subtle.ConstantTimeCompare(sum, s.mac(userID, id)) != 1 {
		return 0, ErrBadCallback
	}
	return id, nil
}

func (s *Signer) mac(userID, reminderID int64) []byte {
	h, err := blake2b.New(macSize, s.key[:])
	if err != nil {
		panic(err) // size and key length are constants
	}
	fmt.Fprintf(h, "%d:%d", userID, reminderID)
	return h.Sum(nil)
}
