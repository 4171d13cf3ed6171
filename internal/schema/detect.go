package schema

import (
	"encoding/xml"
	"io"
	"strings"
)

// MaxDocumentSize bounds inbound XML payloads (spec §5: "reject bodies
// larger than an implementation-defined maximum, suggested 1 MiB").
const MaxDocumentSize = 1 << 20

// rootNamespaceToType maps the final path component of a root element's
// xmlns URI to the message type it identifies, e.g.
// "urn:iso:std:iso:20022:tech:xsd:pacs.008.001.13" -> Pacs00800113.
var rootNamespaceToType = func() map[string]MessageType {
	m := make(map[string]MessageType, len(SupportedMessageTypes))
	for _, mt := range SupportedMessageTypes {
		m[string(mt)] = mt
	}
	return m
}()

// DetectMessageType inspects the XML root element's xmlns URI and
// returns the message type named by its final path component. It
// returns ("", false) if the document doesn't parse or no namespace
// maps to a known type — never panics or returns an error, since
// auto-detection is a best-effort step ahead of real validation.
func DetectMessageType(xmlBytes []byte) (MessageType, bool) {
	dec := xml.NewDecoder(strings.NewReader(string(xmlBytes)))
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return "", false
			}
			return "", false
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		ns := start.Name.Space
		if ns == "" {
			for _, attr := range start.Attr {
				if attr.Name.Local == "xmlns" {
					ns = attr.Value
					break
				}
			}
		}
		if ns == "" {
			return "", false
		}
		parts := strings.Split(ns, ":")
		last := parts[len(parts)-1]
		if mt, ok := rootNamespaceToType[last]; ok {
			return mt, true
		}
		return "", false
	}
}
