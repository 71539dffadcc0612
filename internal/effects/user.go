package effects

import (
	"encoding/base64"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nhle/taskstate/internal/model"
)

// userIDLen is the number of encoded characters kept in a derived user id.
const userIDLen = 8

// UserID derives a stable id from an email address: "user_" followed by the
// first eight letters and digits of the address's base64 encoding.
func UserID(email string) string {
	enc := base64.StdEncoding.EncodeToString([]byte(email))

	var b strings.Builder
	b.WriteString("user_")
	n := 0
	for _, r := range enc {
		if n == userIDLen {
			break
		}
		if r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			n++
		}
	}
	return b.String()
}

// DisplayName returns the local part of email with its first character
// upper-cased.
func DisplayName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return ""
	}
	_, size := utf8.DecodeRuneInString(local)
	// A Caser is stateful, so each call gets its own.
	return cases.Upper(language.Und).String(local[:size]) + local[size:]
}

// NewUser builds the mock session user for email.
func NewUser(email string, now time.Time) model.User {
	return model.User{
		ID:        UserID(email),
		Email:     email,
		Name:      DisplayName(email),
		CreatedAt: now,
	}
}
