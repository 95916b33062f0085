// Package model defines the persisted types for the Reqstly backend.
//
// The identity side follows a hub-and-spoke shape: User is the root of
// trust, and each authentication mechanism hangs its own credential record
// off it (Password, PasskeyCredential, ExternalIdentity). Sessions reference
// the User plus the provider that issued them. Requests and their append-only
// AuditLog rows make up the ticketing side.
//
// All child rows cascade on User deletion. AuditLog rows are append-only;
// deleting a Request removes its trail except for the final deleted row.
package model

import (
	"database/sql/driver"
	"errors"
)

// JSON is a custom type for handling JSON data in various storages.
type JSON []byte

func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*j = append((*j)[0:0], v...)
	case string:
		*j = []byte(v)
	default:
		return errors.New("invalid type for JSON")
	}
	return nil
}
