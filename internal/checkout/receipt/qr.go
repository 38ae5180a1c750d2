package receipt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"ms-pos/internal/models"

	"github.com/skip2/go-qrcode"
)

// Generator renders an encrypted order token as a QR image. Customers show
// it at the stall to pick up or verify an order; nothing is printed.
type Generator struct {
	secret []byte
}

func NewGenerator(secret string) *Generator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &Generator{secret: hashed[:]}
}

// payload is the minimal order identity embedded in the QR. Line details
// stay server-side; the token is only a lookup key with integrity.
type payload struct {
	OrderID  string  `json:"order_id"`
	EventID  string  `json:"event_id"`
	Total    float64 `json:"total"`
	Items    int     `json:"items"`
	IssuedAt int64   `json:"issued_at"`
}

func (g *Generator) Generate(receipt models.OrderReceipt) ([]byte, error) {
	data, err := json.Marshal(payload{
		OrderID:  receipt.OrderID,
		EventID:  receipt.EventID,
		Total:    receipt.Total,
		Items:    receipt.Items,
		IssuedAt: receipt.CreatedAt.Unix(),
	})
	if err != nil {
		return nil, err
	}

	encrypted, err := encryptAES(data, g.secret)
	if err != nil {
		return nil, err
	}

	return qrcode.Encode(encrypted, qrcode.Medium, 256)
}

func encryptAES(data []byte, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
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
