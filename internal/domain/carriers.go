package domain

import (
	"fmt"
	"maps"
	"slices"
)

// carrierGateways maps a phone provider to its email-to-SMS gateway domain.
var carrierGateways = map[string]string{
	"Verizon":     "vtext.com",
	"T-Mobile":    "tmomail.net",
	"AT&T":        "txt.att.net",
	"Sprint":      "messaging.sprintpcs.com",
	"US Cellular": "email.uscc.net",
}

// SMSGatewayAddress returns the address that delivers mail to phone as a
// text message, or ErrUnknownCarrier.
func SMSGatewayAddress(phone, provider string) (string, error) {
	gateway, ok := carrierGateways[provider]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCarrier, provider)
	}
	return phone + "@" + gateway, nil
}

// PhoneProviders lists the supported carriers, sorted.
func PhoneProviders() []string {
	return slices.Sorted(maps.Keys(carrierGateways))
}
