package tenweb

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

var subdomainAdjectives = []string{
	"amazing", "awesome", "brilliant", "creative", "dynamic",
	"elegant", "fantastic", "gorgeous", "innovative", "magical",
}

var subdomainNouns = []string{
	"site", "web", "studio", "hub", "space",
	"digital", "online", "portal", "platform", "zone",
}

// RandomSubdomain generates an adjective-noun-digits subdomain.
func RandomSubdomain() string {
	return fmt.Sprintf("%s-%s-%d",
		subdomainAdjectives[rand.IntN(len(subdomainAdjectives))],
		subdomainNouns[rand.IntN(len(subdomainNouns))],
		rand.IntN(9999)+1,
	)
}

const (
	upperChars   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars   = "abcdefghijklmnopqrstuvwxyz"
	digitChars   = "0123456789"
	specialChars = "!@#$%^&*"
)

// RandomPassword generates a 12 character admin password guaranteed to
// contain at least one uppercase, lowercase, digit and special character.
func RandomPassword() string {
	pool := upperChars + lowerChars + digitChars + specialChars

	chars := []byte{
		upperChars[rand.IntN(len(upperChars))],
		lowerChars[rand.IntN(len(lowerChars))],
		digitChars[rand.IntN(len(digitChars))],
		specialChars[rand.IntN(len(specialChars))],
	}
	for i := 0; i < 8; i++ {
		chars = append(chars, pool[rand.IntN(len(pool))])
	}

	rand.Shuffle(len(chars), func(i, j int) {
		chars[i], chars[j] = chars[j], chars[i]
	})
	return string(chars)
}

// AdminURL derives the wp-admin URL from a site URL.
func AdminURL(siteURL string) string {
	return strings.TrimRight(siteURL, "/") + "/wp-admin"
}
