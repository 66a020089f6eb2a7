package remo

import "fmt"

// MacAddress is a 48-bit hardware address.
type MacAddress [6]byte

// ParseMacAddress accepts six two-digit hexadecimal octets separated by
// ':' or '-', for example "c8:2b:96:00:11:22". Separators may be mixed.
func ParseMacAddress(s string) (MacAddress, error) {
	var mac MacAddress
	if len(s) != 17 {
		return mac, fmt.Errorf("%w: %q", ErrMacAddressParse, s)
	}
	for i := range mac {
		pos := i * 3
		if i > 0 && s[pos-1] != ':' && s[pos-1] != '-' {
			return MacAddress{}, fmt.Errorf("%w: %q", ErrMacAddressParse, s)
		}
		hi, okHi := fromHex(s[pos])
		lo, okLo := fromHex(s[pos+1])
		if !okHi || !okLo {
			return MacAddress{}, fmt.Errorf("%w: %q", ErrMacAddressParse, s)
		}
		mac[i] = hi<<4 | lo
	}
	return mac, nil
}

func fromHex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// String formats the address with lower-case digits and ':' separators.
func (m MacAddress) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", m[0], m[1], m[2], m[3], m[4], m[5])
}

// MustParseMacAddress is like ParseMacAddress but panics on error.
func MustParseMacAddress(s string) MacAddress {
	mac, err := ParseMacAddress(s)
	if err != nil {
		panic(err)
	}
	return mac
}
