package iso20022

import "github.com/nexusgw/gateway/internal/schema"

// ExtractOriginalUetrFromReturn recovers the UETR a return's
// NEXUSORIGINALUETR:<uuid> marker names (spec §3, §4.5: "ACCEPTED ->
// RETURNED on a subsequent pacs.008 whose remittance-info free-text
// matches..."). Delegates to the Schema Validator's extractor so the
// fix for the source's literal-placeholder bug (spec §9) lives in one place.
func ExtractOriginalUetrFromReturn(remittanceText string) (string, bool) {
	return schema.ExtractOriginalUetr(remittanceText)
}
