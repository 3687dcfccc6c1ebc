// Package magetasks provides the build, test and lint tasks behind the
// shopkit Magefile. Tasks are grouped the way the Magefile namespaces them.
package magetasks
