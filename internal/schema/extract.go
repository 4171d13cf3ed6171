package schema

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"
)

// uetrElementNames are the element local-names the gateway accepts as a
// UETR carrier across the message families it handles, tried in order.
var uetrElementNames = []string{"UETR", "OrgnlUETR", "TxId"}

// SafeExtractUetr pulls the first recognized UETR-bearing element's text
// without failing on malformed input (spec §4.1): returned even when the
// document is otherwise invalid, so audit rows stay keyed. Returns ""
// if no such element is found or the bytes don't parse as XML at all.
func SafeExtractUetr(xmlBytes []byte) string {
	dec := xml.NewDecoder(bytes.NewReader(xmlBytes))
	dec.Strict = false

	var inTarget bool
	var builder strings.Builder

	for {
		tok, err := dec.Token()
		if err != nil {
			if err != io.EOF {
				// encoding/xml repeats a syntax error on every later call,
				// so truncated or garbled XML ends the scan with no UETR
				return ""
			}
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if matchesUetrName(t.Name.Local) {
				inTarget = true
				builder.Reset()
			}
		case xml.CharData:
			if inTarget {
				builder.Write(t)
			}
		case xml.EndElement:
			if inTarget && matchesUetrName(t.Name.Local) {
				text := strings.TrimSpace(builder.String())
				if text != "" {
					return text
				}
				inTarget = false
			}
		}
	}
	return ""
}

func matchesUetrName(local string) bool {
	for _, name := range uetrElementNames {
		if strings.EqualFold(local, name) {
			return true
		}
	}
	return false
}

// OriginalUetrPrefix is the distinguished marker a return's remittance
// free-text carries to name the payment it is returning (spec §3).
const OriginalUetrPrefix = "NEXUSORIGINALUETR:"

// ExtractOriginalUetr finds the NEXUSORIGINALUETR:<uuid> marker inside
// free-text remittance information, returning ("", false) if absent.
// Unlike the source's documented bug of returning a literal placeholder
// string, this always parses the real value out of the text (spec §9).
func ExtractOriginalUetr(remittanceText string) (string, bool) {
	idx := strings.Index(remittanceText, OriginalUetrPrefix)
	if idx < 0 {
		return "", false
	}
	rest := remittanceText[idx+len(OriginalUetrPrefix):]
	end := strings.IndexFunc(rest, func(r rune) bool {
		return !(r == '-' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F'))
	})
	if end == -1 {
		end = len(rest)
	}
	uetr := strings.ToLower(strings.TrimSpace(rest[:end]))
	if uetr == "" {
		return "", false
	}
	return uetr, true
}
