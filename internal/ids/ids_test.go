package ids

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTrackingIDGenerator_Format(t *testing.T) {
	// 23:30 в UTC-5 это уже следующий день по UTC
	loc := time.FixedZone("UTC-5", -5*3600)
	clock := func() time.Time { return time.Date(2025, 3, 9, 23, 30, 0, 0, loc) }

	gen := TrackingIDGenerator("SD", 6, clock)
	re := regexp.MustCompile(`^SD-20250310-[A-Z0-9]{6}$`)
	for i := 0; i < 200; i++ {
		id := gen()
		require.Regexp(t, re, id)
	}
}

func TestTrackingIDGenerator_Defaults(t *testing.T) {
	gen := TrackingIDGenerator("", 0, nil)
	before := time.Now().UTC().Format("20060102")
	id := gen()
	after := time.Now().UTC().Format("20060102")

	parts := strings.Split(id, "-")
	require.Len(t, parts, 3)
	require.Equal(t, DefaultTrackingPrefix, parts[0])
	// генерация могла попасть на полночь UTC
	require.Contains(t, []string{before, after}, parts[1])
	require.Len(t, parts[2], DefaultTrackingRandomLength)
}

func TestShortIDGenerator_AlphabetAndLength(t *testing.T) {
	gen := ShortIDGenerator(0)
	for i := 0; i < 200; i++ {
		id := gen()
		require.Len(t, id, DefaultShortIDLength)
		for _, r := range id {
			require.True(t, strings.ContainsRune(ShortIDAlphabet, r), "unexpected symbol %q", r)
		}
	}
}

func TestRandomString_Edges(t *testing.T) {
	require.Equal(t, "", randomString(TrackingAlphabet, 0))
	require.Equal(t, "", randomString("", 5))
	require.Equal(t, "AAAA", randomString("A", 4))
	require.Len(t, randomString(strings.Repeat("A", 256), 3), 3)
}

func TestRandomString_OversizedAlphabetPanics(t *testing.T) {
	require.Panics(t, func() { randomString(strings.Repeat("A", 257), 1) })
}

func TestRandomString_CoversAlphabet(t *testing.T) {
	seen := map[rune]bool{}
	for i := 0; i < 500; i++ {
		for _, r := range randomString(TrackingAlphabet, 6) {
			seen[r] = true
		}
	}
	require.Len(t, seen, len(TrackingAlphabet))
}

func TestGenerator_ProducesDistinctCandidates(t *testing.T) {
	gen := ShortIDGenerator(8)
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		seen[gen()] = struct{}{}
	}
	require.Len(t, seen, 1000)
}
