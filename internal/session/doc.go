// Package session keeps open form documents in memory between requests and
// writes their changes back to a storage.Repository.
package session
