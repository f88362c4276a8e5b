package model

import "time"

// ResourceLock is an advisory lock serializing writers that touch the same
// resource. The _id is the resource id, so a duplicate-key insert means
// another writer holds the resource. ExpiresAt backs a TTL index so a
// crashed writer cannot wedge a resource forever.
type ResourceLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
