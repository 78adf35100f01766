package bad

//bitvariants:gen Perm uint8 Read
//bitvariants:make Perm; u8; Read
//bitvariants:gen pub lower; u8; A
