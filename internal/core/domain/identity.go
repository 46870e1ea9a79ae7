package domain

import (
	"strconv"

	"github.com/google/uuid"
)

// PointID returns the stable identity of the passage at ordinal within source:
// a name-based UUID over "<source>-<ordinal>". Re-ingesting the same source
// with the same layout overwrites the same records.
func PointID(source string, ordinal int) string {
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(source+"-"+strconv.Itoa(ordinal))).String()
}
