package scancode

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/pbkdf2"
)

// Payload is the decoded content of a student QR code.
type Payload struct {
	FullName        string
	StudentIDNumber string
	EventID         string
}

// Codec encrypts and decrypts QR payloads shared with the scanner apps.
// The wire form is base64url(nonce || AES-256-GCM ciphertext) of the
// "fullName-studentId-eventId" string.
type Codec struct {
	key []byte
}

var pbkdf2Salt = []byte("campus-attend.scancode.v1")

// NewCodec derives the AES key from the shared secret.
func NewCodec(secret string) *Codec {
	key := pbkdf2.Key([]byte(secret), pbkdf2Salt, 10_000, 32, sha256.New)
	return &Codec{key: key}
}

// Encode encrypts the payload into its wire form. The id fields become
// dash-delimited tokens, so they must not contain dashes themselves; UUID
// event ids are carried in their compact 32-hex form.
func (c *Codec) Encode(p Payload) (string, error) {
	if p.StudentIDNumber == "" || p.EventID == "" {
		return "", fmt.Errorf("payload requires student id and event id")
	}
	if strings.Contains(p.StudentIDNumber, "-") {
		return "", fmt.Errorf("student id must not contain dashes")
	}
	eventID := p.EventID
	if strings.Contains(eventID, "-") {
		u, err := uuid.Parse(eventID)
		if err != nil {
			return "", fmt.Errorf("event id must be a uuid or dash-free")
		}
		eventID = strings.ReplaceAll(u.String(), "-", "")
	}

	plaintext := []byte(p.FullName + "-" + p.StudentIDNumber + "-" + eventID)

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("new cipher: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("new gcm: %w", err)
	}

	nonce := make([]byte, aesgcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}

	ciphertext := aesgcm.Seal(nil, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(append(nonce, ciphertext...)), nil
}

// Decode decrypts the wire form and splits it back into a payload. The full
// name may itself contain dashes, so the id fields are taken from the right.
func (c *Codec) Decode(encoded string) (*Payload, error) {
	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}

	ns := aesgcm.NonceSize()
	if len(data) < ns {
		return nil, fmt.Errorf("cipher too short")
	}
	nonce, ciphertext := data[:ns], data[ns:]

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}

	return parse(string(plaintext))
}

func parse(raw string) (*Payload, error) {
	last := strings.LastIndex(raw, "-")
	if last <= 0 {
		return nil, fmt.Errorf("malformed payload")
	}
	rest, eventID := raw[:last], raw[last+1:]

	mid := strings.LastIndex(rest, "-")
	if mid <= 0 {
		return nil, fmt.Errorf("malformed payload")
	}
	fullName, studentID := rest[:mid], rest[mid+1:]

	if fullName == "" || studentID == "" || eventID == "" {
		return nil, fmt.Errorf("malformed payload")
	}

	// Compact uuids go back to canonical dashed form.
	if len(eventID) == 32 {
		if u, err := uuid.Parse(eventID); err == nil {
			eventID = u.String()
		}
	}

	return &Payload{FullName: fullName, StudentIDNumber: studentID, EventID: eventID}, nil
}
