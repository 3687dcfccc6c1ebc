// Package features holds the end-to-end acceptance scenarios. They run the
// compiled shopkit binary and only build with the acceptance tag:
//
//	go test -tags acceptance ./features/...
package features
