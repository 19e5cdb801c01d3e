// Package engagement implements campaign engagement tracking.
//
// The service layer turns untrusted open/click requests into recipient
// state transitions, keeps campaign rollups converged, and builds the
// per-contact attribution report. It depends on repository interfaces
// defined in this package and should never import from handler packages.
//
// Repository implementations live in repository/postgres/ and
// repository/memory/.
package engagement
