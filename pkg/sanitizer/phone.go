package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const DefaultRegion = "US"

// NormalizePhone renders raw in E.164 form. Numbers without a country code are
// read as belonging to region. Blank input, unparseable input and numbers the
// metadata rejects as invalid are returned unchanged.
func NormalizePhone(raw string, region string) string {
	phone := strings.TrimSpace(raw)
	if phone == "" {
		return raw
	}

	parsedNumber, err := phonenumbers.Parse(phone, region)
	if err != nil || !phonenumbers.IsValidNumber(parsedNumber) {
		return raw
	}
	return phonenumbers.Format(parsedNumber, phonenumbers.E164)
}

// IsSupportedRegion reports whether region is a CLDR region code known to the phone metadata.
func IsSupportedRegion(region string) bool {
	return phonenumbers.GetCountryCodeForRegion(strings.ToUpper(region)) != 0
}
