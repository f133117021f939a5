package qr

import (
	"encoding/json"
	"testing"
	"time"

	"ticket-registry/internal/models"
)

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Failed to marshal payload: %v", err)
	}
	return data
}

func sampleDetails() models.TicketDetails {
	return models.TicketDetails{
		Ticket: models.Ticket{
			ID:       7,
			EventID:  1,
			Seat:     "A1",
			Price:    150,
			IssuedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		Owner: "alice",
	}
}

func TestEncryptedQR(t *testing.T) {
	gen := NewGenerator("test-secret-key")

	qrBytes, err := gen.EncryptedQR(sampleDetails())
	if err != nil {
		t.Fatalf("Failed to generate QR code: %v", err)
	}
	if len(qrBytes) == 0 {
		t.Error("Generated QR code is empty")
	}
}

func TestEncryptDecryptRoundtrip(t *testing.T) {
	gen := NewGenerator("test-secret-key")
	details := sampleDetails()

	payload, err := gen.encrypt(mustJSON(t, details))
	if err != nil {
		t.Fatalf("Failed to encrypt payload: %v", err)
	}

	got, err := gen.Decrypt(payload)
	if err != nil {
		t.Fatalf("Failed to decrypt payload: %v", err)
	}
	if got.Ticket.ID != details.Ticket.ID || got.Owner != details.Owner || got.Ticket.Price != details.Ticket.Price {
		t.Errorf("Roundtrip mismatch: got %+v, want %+v", got, details)
	}
}

func TestDecryptWithWrongSecret(t *testing.T) {
	gen1 := NewGenerator("secret-one")
	gen2 := NewGenerator("secret-two")

	payload, err := gen1.encrypt(mustJSON(t, sampleDetails()))
	if err != nil {
		t.Fatalf("Failed to encrypt payload: %v", err)
	}

	if _, err := gen2.Decrypt(payload); err == nil {
		t.Error("Expected decryption with wrong secret to fail")
	}
}

func TestEncryptUsesRandomIV(t *testing.T) {
	gen := NewGenerator("test-secret-key")
	data := mustJSON(t, sampleDetails())

	first, err := gen.encrypt(data)
	if err != nil {
		t.Fatalf("Failed to encrypt payload: %v", err)
	}
	second, err := gen.encrypt(data)
	if err != nil {
		t.Fatalf("Failed to encrypt payload: %v", err)
	}
	if first == second {
		t.Error("Ciphertexts for the same payload should differ due to random IV")
	}
}
