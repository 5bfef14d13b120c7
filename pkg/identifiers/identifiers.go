// Package identifiers finds and classifies ISBNs in filenames, document text and
// metadata identifier lists.
package identifiers

import (
	"regexp"
	"strings"
	"unicode"
)

// Type represents the type of identifier.
type Type string

const (
	TypeISBN10  Type = "isbn_10"
	TypeISBN13  Type = "isbn_13"
	TypeUnknown Type = ""
)

var (
	// Filenames rarely pretty-print ISBNs, so no interior separators are allowed here.
	// Any non-digit delimits the match since names glue ISBNs to words with "_".
	filenameISBNRegex = regexp.MustCompile(`(?:^|[^0-9])((?:97[89])?\d{9}[\dXx])(?:[^0-9]|$)`)

	// Free text (PDF pages, EPUB chapters) often prints "978-0-306-40615-7".
	textISBN13Regex = regexp.MustCompile(`\b97[89](?:[-\s]?\d){9}[-\s]?[\dXx]\b`)
	textISBN10Regex = regexp.MustCompile(`\b\d(?:[-\s]?\d){8}[-\s]?[\dXx]\b`)

	separatorRegex = regexp.MustCompile(`[-\s]`)
)

// FromFilename returns the first ISBN-13 or ISBN-10 looking sequence in a filename.
// The checksum is not validated.
func FromFilename(name string) (string, bool) {
	match := filenameISBNRegex.FindStringSubmatch(name)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// FromText returns the first ISBN-looking sequence in free text with hyphens and
// spaces stripped. ISBN-13 forms win over ISBN-10 forms when both are present.
func FromText(text string) (string, bool) {
	if match := textISBN13Regex.FindString(text); match != "" {
		return separatorRegex.ReplaceAllString(match, ""), true
	}
	if match := textISBN10Regex.FindString(text); match != "" {
		return separatorRegex.ReplaceAllString(match, ""), true
	}
	return "", false
}

// DetectType determines the ISBN type of a value. A non-empty scheme other than
// "ISBN" means the value is some other kind of identifier.
func DetectType(value, scheme string) Type {
	scheme = strings.ToUpper(strings.TrimSpace(scheme))
	if scheme != "" && scheme != "ISBN" {
		return TypeUnknown
	}

	normalized := NormalizeISBN(value)
	if len(normalized) == 13 && ValidateISBN13(normalized) {
		return TypeISBN13
	}
	if len(normalized) == 10 && ValidateISBN10(normalized) {
		return TypeISBN10
	}
	return TypeUnknown
}

// NormalizeISBN removes hyphens, spaces, and common prefixes from an ISBN.
func NormalizeISBN(value string) string {
	value = strings.TrimSpace(strings.ToUpper(value))
	value = strings.TrimPrefix(value, "URN:ISBN:")
	value = strings.TrimPrefix(value, "ISBN:")
	value = strings.TrimPrefix(value, "ISBN")

	// Keep only digits and X (for ISBN-10 checksum)
	var result strings.Builder
	for _, r := range value {
		if unicode.IsDigit(r) || r == 'X' {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// ValidateISBN10 validates an ISBN-10 checksum.
// ISBN-10 uses modulo 11 with weights 10,9,8,7,6,5,4,3,2,1.
func ValidateISBN10(isbn string) bool {
	if len(isbn) != 10 {
		return false
	}

	var sum int
	for i, r := range isbn {
		var digit int
		switch {
		case (r == 'X' || r == 'x') && i == 9:
			digit = 10
		case r >= '0' && r <= '9':
			digit = int(r - '0')
		default:
			return false
		}
		sum += digit * (10 - i)
	}
	return sum%11 == 0
}

// ValidateISBN13 validates an ISBN-13 checksum.
// ISBN-13 uses alternating weights of 1 and 3.
func ValidateISBN13(isbn string) bool {
	if len(isbn) != 13 {
		return false
	}

	var sum int
	for i, r := range isbn {
		if r < '0' || r > '9' {
			return false
		}
		digit := int(r - '0')
		if i%2 == 0 {
			sum += digit
		} else {
			sum += digit * 3
		}
	}
	return sum%10 == 0
}

// ToISBN13 converts a valid ISBN-10 to its ISBN-13 form. Anything else is
// returned normalized but otherwise unchanged.
func ToISBN13(value string) string {
	normalized := NormalizeISBN(value)
	if len(normalized) != 10 || !ValidateISBN10(normalized) {
		return normalized
	}

	body := "978" + normalized[:9]
	var sum int
	for i, r := range body {
		digit := int(r - '0')
		if i%2 == 0 {
			sum += digit
		} else {
			sum += digit * 3
		}
	}
	check := (10 - sum%10) % 10
	return body + string(rune('0'+check))
}
