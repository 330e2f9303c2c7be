// Package domain resolves hosts to their registrable domain (eTLD+1).
//
// The registrable domain is the identity used for every first-party versus
// third-party decision in a privacy report. Two hosts belong to the same
// party when they resolve to the same registrable domain.
package domain
