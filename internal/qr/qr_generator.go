package qr

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/skip2/go-qrcode"

	"ticket-registry/internal/models"
)

// Generator renders a ticket's details as a QR code carrying an
// AES-encrypted payload, so the image can be presented as an ownership
// proof without exposing the record.
type Generator struct {
	secret []byte
}

func NewGenerator(secret string) *Generator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &Generator{secret: hashed[:]}
}

// EncryptedQR encrypts the ticket details and encodes them as a PNG QR.
func (g *Generator) EncryptedQR(details models.TicketDetails) ([]byte, error) {
	data, err := json.Marshal(details)
	if err != nil {
		return nil, err
	}

	encrypted, err := g.encrypt(data)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(encrypted, qrcode.Medium, 256)
}

// Decrypt reverses the payload encryption. Used by scanner tooling to
// verify a presented code.
func (g *Generator) Decrypt(encoded string) (*models.TicketDetails, error) {
	raw, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	if len(raw) < aes.BlockSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	block, err := aes.NewCipher(g.secret)
	if err != nil {
		return nil, err
	}

	iv := raw[:aes.BlockSize]
	data := raw[aes.BlockSize:]
	stream := cipher.NewCFBDecrypter(block, iv)
	stream.XORKeyStream(data, data)

	var details models.TicketDetails
	if err := json.Unmarshal(data, &details); err != nil {
		return nil, fmt.Errorf("decrypted payload is not a ticket: %w", err)
	}
	return &details, nil
}

func (g *Generator) encrypt(data []byte) (string, error) {
	block, err := aes.NewCipher(g.secret)
	if err != nil {
		return "", err
	}

	ciphertext := make([]byte, aes.BlockSize+len(data))
	iv := ciphertext[:aes.BlockSize]
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(ciphertext[aes.BlockSize:], data)

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}
