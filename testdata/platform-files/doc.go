// Package platform holds OS specific flag sets.
package platform
