package importengine

import "strings"

// Health exports carry their data points as flat self-closing elements:
// <Record attr1="v1" attr2="v2" ... />. The extractor works on the raw text
// buffer; it never parses XML.
const (
	recordMarker     = "<Record"
	recordTerminator = "/>"
)

// markerFollowerOK reports whether b may legally follow the marker. Anything
// else means the marker is a prefix of a longer tag name (e.g. <RecordSet)
// and must not be treated as a record opening.
func markerFollowerOK(b byte) bool {
	return b == ' ' || b == '>' || b == '/'
}

// extractRecords scans buf for complete records and returns them in source
// order together with the unconsumed remainder.
//
// A record is complete when both its validated opening and the "/>"
// terminator are present. An opening whose terminator has not arrived yet
// stops the scan; the remainder is always the suffix of buf starting at the
// end of the last extracted record, so no unconsumed byte is ever dropped
// and re-extracting the remainder alone yields nothing new.
func extractRecords(buf string) ([]string, string) {
	if buf == "" {
		return nil, ""
	}

	var records []string
	consumed := 0 // end offset of the last extracted record
	cursor := 0
	for {
		rel := strings.Index(buf[cursor:], recordMarker)
		if rel < 0 {
			break
		}
		start := cursor + rel
		after := start + len(recordMarker)
		if after >= len(buf) {
			// Marker sits at the buffer edge; the follower byte decides
			// validity and has not arrived yet.
			break
		}
		if !markerFollowerOK(buf[after]) {
			cursor = start + 1
			continue
		}
		termRel := strings.Index(buf[after:], recordTerminator)
		if termRel < 0 {
			// Opening without terminator: incomplete, wait for more bytes.
			break
		}
		end := after + termRel + len(recordTerminator)
		records = append(records, buf[start:end])
		consumed = end
		cursor = end
	}
	return records, buf[consumed:]
}

// countRecordMarkers counts validated record openings in s. Used to decide
// whether a chunk contains any records at all.
func countRecordMarkers(s string) int {
	count := 0
	cursor := 0
	for {
		rel := strings.Index(s[cursor:], recordMarker)
		if rel < 0 {
			return count
		}
		start := cursor + rel
		after := start + len(recordMarker)
		if after >= len(s) {
			return count
		}
		if markerFollowerOK(s[after]) {
			count++
			cursor = after
		} else {
			cursor = start + 1
		}
	}
}
