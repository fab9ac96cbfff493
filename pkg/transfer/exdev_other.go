//go:build !unix

package transfer

// Non-unix platforms report cross-volume renames with platform specific codes; treat every
// rename failure as final there.
func isEXDEV(error) bool {
	return false
}
