// services/qrcode_service.go
package services

import (
	"github.com/skip2/go-qrcode"
)

// GenerateShareQR creates a QR code PNG pointing at the application URL,
// for printing on prayer-meeting handouts.
func GenerateShareQR(applicationURL string, size int) ([]byte, error) {
	return qrcode.Encode(applicationURL, qrcode.Medium, size)
}
