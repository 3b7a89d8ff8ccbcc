package gateway

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/celustore/payserver/internal/domain/model"
)

// DefaultPostalCode is used when no zone token is present in the address.
const DefaultPostalCode = "01001"

// validInstallments is the processor's allow-list of installment plans.
var validInstallments = map[int]bool{3: true, 6: true, 10: true, 12: true, 18: true, 24: true}

var zonePattern = regexp.MustCompile(`(?i)zona?\s*(\d{1,2})`)

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// InstallmentCode renders the two-letter-plus-two-digit installment token
// (6 installments -> "VC06"). Values outside the allow-list mean no
// installments and yield an empty token.
func InstallmentCode(n int) string {
	if !validInstallments[n] {
		return ""
	}
	return fmt.Sprintf("VC%02d", n)
}

// NormalizeBilling produces the billing block the processor accepts:
// accents stripped everywhere, address restricted to its charset, phone
// reduced to the local 8-digit form, postal code derived from a zone
// token inside the free-text address.
func NormalizeBilling(c model.Customer) model.BillingBlock {
	address := normalizeAddress(c.Address)
	return model.BillingBlock{
		FirstName:  StripAccents(c.FirstName),
		LastName:   StripAccents(c.LastName),
		Address1:   address,
		Locality:   StripAccents(c.Locality),
		AdminArea:  areaCode(c.State),
		PostalCode: PostalCodeFromAddress(c.Address),
		Country:    countryCode(c.Country),
		Email:      strings.TrimSpace(c.Email),
		PhoneNo:    NormalizePhone(c.Phone),
	}
}

// StripAccents removes diacritical marks, leaving plain ASCII letters.
func StripAccents(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		return s
	}
	return out
}

// normalizeAddress keeps letters, digits, spaces and the '. , -' set the
// processor tolerates.
func normalizeAddress(s string) string {
	s = StripAccents(s)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '.', r == ',', r == '-':
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// NormalizePhone strips separators and, when a country code is detected,
// reduces the number to its local 8-digit form.
func NormalizePhone(s string) string {
	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) > 8 && strings.HasPrefix(d, "502") && len(d)-3 == 8 {
		return d[3:]
	}
	if len(d) > 8 {
		// Unknown country prefix, keep the trailing local part.
		return d[len(d)-8:]
	}
	return d
}

// PostalCodeFromAddress derives a Guatemala City postal code from a
// "Zona NN" token inside the free-text address, defaulting when absent.
func PostalCodeFromAddress(address string) string {
	m := zonePattern.FindStringSubmatch(address)
	if m == nil {
		return DefaultPostalCode
	}
	zone, err := strconv.Atoi(m[1])
	if err != nil || zone < 1 || zone > 25 {
		return DefaultPostalCode
	}
	return fmt.Sprintf("010%02d", zone)
}

func areaCode(state string) string {
	s := strings.ToUpper(StripAccents(strings.TrimSpace(state)))
	if len(s) >= 2 {
		return s[:2]
	}
	return "GU"
}

func countryCode(country string) string {
	c := strings.ToUpper(strings.TrimSpace(country))
	if len(c) == 2 {
		return c
	}
	return "GT"
}
