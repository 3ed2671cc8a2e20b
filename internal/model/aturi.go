package model

import (
	"fmt"
	"strings"
)

// ParseAtURI splits an AT-URI into its repo DID, collection NSID and record
// key: at://did:plc:abc/app.bsky.feed.post/3l3qo2vuowo2b.
func ParseAtURI(uri string) (did, collection, rkey string, err error) {
	trimmed := strings.TrimPrefix(uri, "at://")
	parts := strings.Split(trimmed, "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", fmt.Errorf("malformed at-uri: %q", uri)
	}
	return parts[0], parts[1], parts[2], nil
}

// RecordKey returns the rkey segment of an AT-URI.
func RecordKey(uri string) (string, error) {
	_, _, rkey, err := ParseAtURI(uri)
	if err != nil {
		return "", err
	}
	return rkey, nil
}
