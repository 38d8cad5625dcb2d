package orders

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// RefPrefix est le préfixe public des références de commande Velora
const RefPrefix = "VLR"

// NewOrderRef fabrique une référence lisible et unique en pratique :
// VLR-<horodatage>-<4 hex aléatoires>, ex: VLR-260901143012-A3F9.
// Exposée aux clients, immuable après création.
func NewOrderRef(at time.Time) string {
	buf := make([]byte, 2)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand ne tombe jamais en pratique ; on se rabat sur l'horloge
		return fmt.Sprintf("%s-%s-%04X", RefPrefix, at.Format("060102150405"), at.Nanosecond()&0xFFFF)
	}
	return fmt.Sprintf("%s-%s-%s", RefPrefix, at.Format("060102150405"),
		strings.ToUpper(hex.EncodeToString(buf)))
}

// ValidOrderRef fait un contrôle de forme avant d'interroger la base
func ValidOrderRef(ref string) bool {
	if !strings.HasPrefix(ref, RefPrefix+"-") {
		return false
	}
	parts := strings.Split(ref, "-")
	return len(parts) == 3 && len(parts[1]) == 12 && len(parts[2]) == 4
}
