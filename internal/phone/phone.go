package phone

import (
	"math/big"
	"regexp"
	"strings"
)

// SenderPolicy selects how one-way sender numbers are validated.
type SenderPolicy string

const (
	// SenderDigits accepts any run of 4 to 14 digits.
	SenderDigits SenderPolicy = "digits"
	// SenderPhone accepts only numbers that are valid cellular or land line phones.
	SenderPhone SenderPolicy = "phone"
)

func (p SenderPolicy) Valid() bool {
	return p == SenderDigits || p == SenderPhone
}

var (
	digitsRe       = regexp.MustCompile(`^[0-9]+$`)
	senderNumberRe = regexp.MustCompile(`^[0-9]{4,14}$`)
	senderNameRe   = regexp.MustCompile(`^[A-Za-z0-9]{2,11}$`)
)

// Plan is a national numbering plan: one country code and the subscriber
// lengths that follow it.
type Plan struct {
	CountryCode     string
	CellularLength  int
	LandLineLengths []int
	SenderPolicy    SenderPolicy
}

// Israel is the plan the gateway operates in: 972 + 9 digit cellular, 8 or 9 digit land lines.
var Israel = Plan{
	CountryCode:     "972",
	CellularLength:  len("545123456"),
	LandLineLengths: []int{len("31235678"), len("777078406")},
	SenderPolicy:    SenderDigits,
}

// EnsureCountryCode prepends the country code unless phone is empty or already
// carries it. A single leading trunk 0 is dropped first.
func (p Plan) EnsureCountryCode(phone string) string {
	if phone == "" || strings.HasPrefix(phone, p.CountryCode) {
		return phone
	}
	phone = strings.TrimPrefix(phone, "0")
	return p.CountryCode + phone
}

// WithoutCountryCode replaces a leading country code with the trunk 0.
// Only the prefix is touched; the digits may legitimately repeat inside the
// subscriber number.
func (p Plan) WithoutCountryCode(phone string) string {
	if !strings.HasPrefix(phone, p.CountryCode) {
		return phone
	}
	return "0" + phone[len(p.CountryCode):]
}

// ValidCellular reports whether phone is country code + cellular length digits.
func (p Plan) ValidCellular(phone string) bool {
	return p.validLength(phone, p.CellularLength)
}

// ValidLandLine reports whether phone is country code + one of the land line lengths.
func (p Plan) ValidLandLine(phone string) bool {
	for _, n := range p.LandLineLengths {
		if p.validLength(phone, n) {
			return true
		}
	}
	return false
}

// ValidSenderNumber validates a reply-to / one-way sender number according to
// the plan's SenderPolicy.
func (p Plan) ValidSenderNumber(phone string) bool {
	if p.SenderPolicy == SenderPhone {
		return p.ValidCellular(phone) || p.ValidLandLine(phone)
	}
	return senderNumberRe.MatchString(phone)
}

func (p Plan) validLength(phone string, length int) bool {
	if !strings.HasPrefix(phone, p.CountryCode) || !digitsRe.MatchString(phone) {
		return false
	}
	return len(phone) == len(p.CountryCode)+length
}

// ValidSenderName reports whether name is 2 to 11 latin letters or digits.
func ValidSenderName(name string) bool {
	return senderNameRe.MatchString(name)
}

// ToIDString converts an all-digit phone to its base 36 form; anything else
// is returned unchanged.
func ToIDString(phone string) string {
	if !digitsRe.MatchString(phone) {
		return phone
	}
	n, ok := new(big.Int).SetString(phone, 10)
	if !ok {
		return phone
	}
	return n.Text(36)
}

// WithoutStartingPlus strips a single leading '+'.
func WithoutStartingPlus(phone string) string {
	return strings.TrimPrefix(phone, "+")
}
