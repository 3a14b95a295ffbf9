// Package ids generates human-facing identifiers and allocates them against
// the storage uniqueness constraints.
package ids

import (
	"crypto/rand"
	"fmt"
	"time"
)

const (
	// TrackingAlphabet is restricted to upper-case letters and digits for readability.
	TrackingAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	ShortIDAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	DefaultTrackingPrefix       = "SD"
	DefaultTrackingRandomLength = 6
	DefaultShortIDLength        = 8
)

// Generator returns a fresh candidate identifier on each call.
type Generator func() string

// TrackingIDGenerator builds PREFIX-YYYYMMDD-RANDOM candidates, the date
// taken in UTC from clock.
func TrackingIDGenerator(prefix string, randomLen int, clock func() time.Time) Generator {
	if prefix == "" {
		prefix = DefaultTrackingPrefix
	}
	if randomLen <= 0 {
		randomLen = DefaultTrackingRandomLength
	}
	if clock == nil {
		clock = time.Now
	}
	return func() string {
		return fmt.Sprintf("%s-%s-%s", prefix, clock().UTC().Format("20060102"), randomString(TrackingAlphabet, randomLen))
	}
}

func ShortIDGenerator(length int) Generator {
	if length <= 0 {
		length = DefaultShortIDLength
	}
	return func() string {
		return randomString(ShortIDAlphabet, length)
	}
}

// randomString draws n symbols from alphabet using crypto/rand. Bytes that
// would bias the distribution towards the first symbols are rejected.
// Один случайный байт индексирует не больше 256 символов.
func randomString(alphabet string, n int) string {
	if n <= 0 || len(alphabet) == 0 {
		return ""
	}
	if len(alphabet) > 256 {
		panic(fmt.Sprintf("ids: alphabet of %d symbols exceeds 256", len(alphabet)))
	}
	limit := 256 - 256%len(alphabet)
	out := make([]byte, 0, n)
	buf := make([]byte, n+n/2+1)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out)
}
