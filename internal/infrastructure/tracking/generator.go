package tracking

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Generator produces shipment reference codes of the form
// PKG-<YYYYMMDD>-<6 uppercase hex chars>. The suffix comes from 3 bytes of
// crypto/rand, so uniqueness is probabilistic (~1 in 16M per day) and not
// separately enforced here.
type Generator struct{}

func NewGenerator() *Generator { return &Generator{} }

func (*Generator) NewTrackingID() string {
	var buf [3]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand only fails when the platform entropy source is broken.
		panic(err)
	}
	date := time.Now().UTC().Format("20060102")
	return fmt.Sprintf("PKG-%s-%s", date, strings.ToUpper(hex.EncodeToString(buf[:])))
}
