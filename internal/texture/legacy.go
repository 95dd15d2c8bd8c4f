package texture

import (
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// legacyName returns name with its non-ASCII characters encoded as EUC-KR,
// the byte form used by file names extracted from older Korean asset
// archives. ok is false when name is plain ASCII or not representable.
func legacyName(name string) (string, bool) {
	ascii := true
	for i := 0; i < len(name); i++ {
		if name[i] >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return "", false
	}

	encoded, _, err := transform.String(korean.EUCKR.NewEncoder(), name)
	if err != nil {
		return "", false
	}
	return encoded, true
}
