// Package perms declares file permission flags.
package perms

//bitvariants:gen pub Perm; uint8; Read, Write, Exec

// Owner is the default permission set for new files.
const Owner = 0b011
