package firestore

import "github.com/m-mizutani/goerr/v2"

// ErrNotFound indicates the requested document does not exist
var ErrNotFound = goerr.New("not found")
