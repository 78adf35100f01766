package perms

//bitvariants:gen pub Perm; u8; Read, Write, Exec, Admin

// Admins may do everything.
var Admins = Read | Write | Exec | Admin
