// Package ids issues opaque, collision-resistant identifiers for the
// entities the core tracks. Callers treat issued ids as stable, comparable
// keys; only the checksum helpers below ever look inside one.
package ids

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindTicket       Kind = "ticket"
	KindSubscription Kind = "subscription"
	KindZone         Kind = "zone"
	KindGate         Kind = "gate"
	KindCategory     Kind = "cat"
	KindRushWindow   Kind = "rush"
	KindVacation     Kind = "vac"
)

// Issue returns a fresh unique token for the given kind. Tickets and
// subscriptions get checksummed high-entropy tokens; the read-mostly master
// entities get short prefixed ids.
func Issue(kind Kind) string {
	switch kind {
	case KindTicket:
		return ticketID()
	case KindSubscription:
		return subscriptionID()
	default:
		return shortID(string(kind))
	}
}

// shortID is "prefix_" plus the first uuid group, enough for entities created
// by operators rather than by traffic.
func shortID(prefix string) string {
	return prefix + "_" + strings.SplitN(uuid.New().String(), "-", 2)[0]
}

// ticketID format: TKT-{base36 timestamp}-{random}-{hash}.
func ticketID() string {
	ts := timestamp36()
	random := randomHex(8)

	sum := sha256.Sum256([]byte(ts + "-" + random))
	hash := strings.ToUpper(hex.EncodeToString(sum[:]))[:8]

	return "TKT-" + ts + "-" + random + "-" + hash
}

// subscriptionID format: SUB-V2-{timestamp}-{random}-{hmac}-{checksum}. The
// trailing checksum lets offline readers (card printers, kiosks) validate a
// token without a round trip.
func subscriptionID() string {
	const version = "V2"

	ts := timestamp36()
	random := randomHex(12)

	mac := hmac.New(sha256.New, []byte(subscriptionSecret()))
	mac.Write([]byte(ts + "-" + random + "-" + randomHex(16)))
	digest := strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))[:12]

	return strings.Join([]string{
		"SUB", version, ts, random, digest, checksum(ts + random + digest),
	}, "-")
}

var subscriptionIDPattern = regexp.MustCompile(
	`^SUB-V[0-9]-[A-Z0-9]{8}-[A-Z0-9]{12}-[A-Z0-9]{12}-[A-Z0-9]{4}$`,
)

// ValidSubscriptionID reports whether id matches the SUB token format and its
// checksum holds.
func ValidSubscriptionID(id string) bool {
	if !subscriptionIDPattern.MatchString(id) {
		return false
	}

	parts := strings.Split(id, "-")
	return parts[5] == checksum(parts[2]+parts[3]+parts[4])
}

// MaskSubscriptionID hides the secret-bearing groups for display:
// SUB-V2-XXXXXXXX-*****-*****-XXXX.
func MaskSubscriptionID(id string) string {
	parts := strings.Split(id, "-")
	if len(parts) < 6 {
		return id
	}

	return strings.Join([]string{parts[0], parts[1], parts[2], "*****", "*****", parts[5]}, "-")
}

// NumericCardID returns a 20-digit Luhn-checksummed id suitable for printing
// on subscription cards.
func NumericCardID() string {
	var b strings.Builder
	for i := 0; i < 19; i++ {
		n, _ := rand.Int(rand.Reader, big.NewInt(10))
		b.WriteString(n.String())
	}

	digits := b.String()
	return digits + fmt.Sprint(luhnChecksum(digits))
}

// ValidNumericCardID validates the Luhn checksum of a numeric card id.
func ValidNumericCardID(id string) bool {
	if len(id) < 2 {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}

	body := id[:len(id)-1]
	return int(id[len(id)-1]-'0') == luhnChecksum(body)
}

func luhnChecksum(digits string) int {
	sum := 0
	double := true
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}

	return (10 - sum%10) % 10
}

func checksum(data string) string {
	sum := sha256.Sum256([]byte(data))
	return strings.ToUpper(hex.EncodeToString(sum[:]))[:4]
}

// timestamp36 is the current unix-millisecond instant in base 36,
// zero-padded to 8 characters.
func timestamp36() string {
	ts := strings.ToUpper(big.NewInt(time.Now().UnixMilli()).Text(36))
	for len(ts) < 8 {
		ts = "0" + ts
	}
	return ts
}

func randomHex(n int) string {
	b := make([]byte, (n+1)/2)
	_, _ = rand.Read(b)
	return strings.ToUpper(hex.EncodeToString(b))[:n]
}

func subscriptionSecret() string {
	if s := os.Getenv("SUBSCRIPTION_SECRET"); s != "" {
		return s
	}
	return "parkgo-subscription-secret"
}
